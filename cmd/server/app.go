package main

import (
	"blog-api/internal/router"
	"blog-api/internal/service"
)

// App is everything main needs after injection: the HTTP router plus the
// services used for startup tasks.
type App struct {
	*router.Router
	Users service.UserService
	Posts service.BlogService
}

func NewApp(r *router.Router, users service.UserService, posts service.BlogService) *App {
	return &App{Router: r, Users: users, Posts: posts}
}
