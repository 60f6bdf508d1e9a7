// cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"blog-api/internal/config"
	"blog-api/internal/controller"
	"blog-api/internal/middleware"
	"blog-api/internal/repository"
	"blog-api/internal/router"
	"blog-api/internal/service"
	"blog-api/pkg/db"
	"blog-api/pkg/jwtauth"
	"blog-api/pkg/logger"
	"blog-api/pkg/redis"

	"github.com/google/wire"
)

var dbSet = wire.NewSet(
	db.NewDatabase,
)

var redisSet = wire.NewSet(
	redis.NewRedisClient,
)

var configSet = wire.NewSet(
	config.LoadConfig,
)

var repositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewBlogRepository,
	wire.Bind(new(repository.UserRepository), new(*repository.UserRepositoryImpl)),
	wire.Bind(new(repository.BlogRepository), new(*repository.BlogRepositoryImpl)),
)

var jwtSet = wire.NewSet(
	jwtauth.NewTokenService,
	jwtauth.NewJwtBlacklist,
	jwtauth.NewLoginLocked,
	wire.Bind(new(jwtauth.UserFinder), new(*repository.UserRepositoryImpl)),
	wire.Bind(new(jwtauth.RevocationChecker), new(*jwtauth.JwtBlacklist)),
)

var serviceSet = wire.NewSet(
	service.NewUserService,
	service.NewBlogService,
	wire.Bind(new(service.UserService), new(*service.UserServiceImpl)),
	wire.Bind(new(service.BlogService), new(*service.BlogServiceImpl)),
	wire.Bind(new(service.TokenIssuer), new(*jwtauth.TokenService)),
	wire.Bind(new(service.LoginGuard), new(*jwtauth.LoginLocked)),
	wire.Bind(new(service.TokenRevoker), new(*jwtauth.JwtBlacklist)),
)

var controllerSet = wire.NewSet(
	controller.NewBlogController,
	controller.NewUserController,
	controller.NewAuthController,
	controller.NewHealthController,
)

var middlewareSet = wire.NewSet(
	middleware.NewJWT,
	middleware.NewAuthMiddleware,
	middleware.NewRateLimiterMiddleware,
	wire.Bind(new(middleware.TokenVerifier), new(*jwtauth.TokenService)),
)

var routerSet = wire.NewSet(
	router.NewRouter,
)

var loggerSet = wire.NewSet(
	logger.NewZapLogger,
	wire.Bind(new(logger.Logger), new(*logger.ZapLogger)),
)

func InitializeApp(configPath string) (*App, func(), error) {
	wire.Build(
		configSet,
		loggerSet,
		dbSet,
		redisSet,
		repositorySet,
		jwtSet,
		serviceSet,
		controllerSet,
		middlewareSet,
		routerSet,
		NewApp,
	)
	return nil, nil, nil
}
