package router

import (
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"blog-api/internal/config"
	"blog-api/internal/controller"
	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/utils"
	"blog-api/pkg/logger"
)

type Router struct {
	Engine *gin.Engine
	Config *config.Config
	Logger logger.Logger
}

func NewRouter(
	blogController *controller.BlogController,
	userController *controller.UserController,
	authController *controller.AuthController,
	healthController *controller.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	jwtMiddleware *middleware.JWT,
	rateLimiter *middleware.RateLimiterMiddleware,
	cfg *config.Config,
	logger logger.Logger,
) *Router {
	switch strings.ToLower(cfg.App.Mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(logger.GetZapLogger(), time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger.GetZapLogger(), true))
	r.NoRoute(func(c *gin.Context) {
		utils.Fail(c, http.StatusNotFound, "route not found")
	})

	registerValidator()

	editor := authMiddleware.RequireRoles(model.RoleEditor)
	admin := authMiddleware.RequireRoles(model.RoleAdmin)
	signedIn := authMiddleware.RequireRoles()

	api := r.Group("/api")
	// throttled requests never reach token verification
	if cfg.RateLimit.Enabled {
		api.Use(rateLimiter.Handle("api", cfg.RateLimit.Limit, cfg.RateLimit.Window))
	}
	api.Use(jwtMiddleware.Authenticate())
	api.GET("/health", healthController.Check)

	auth := api.Group("/auth")
	{
		login := []gin.HandlerFunc{authController.Login}
		if cfg.RateLimit.Enabled {
			login = append([]gin.HandlerFunc{
				rateLimiter.Handle("login", cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow),
			}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/register", admin, authController.Register)
		auth.POST("/logout", signedIn, authController.Logout)
		auth.GET("/me", signedIn, authController.Me)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", blogController.List)
		posts.GET("/all", admin, blogController.All)
		posts.GET("/:id", blogController.Get)
		posts.POST("", editor, blogController.Create)
		posts.POST("/reorganize", admin, blogController.Reorganize)
		posts.PUT("/:id", editor, blogController.Update)
		posts.DELETE("/:id", admin, blogController.Delete)
		posts.POST("/:id/restore", admin, blogController.Restore)
	}

	users := api.Group("/users", admin)
	{
		users.GET("/all", userController.List)
		users.GET("/:id", userController.GetUser)
		users.DELETE("/:id", userController.Delete)
		users.POST("/:id/restore", userController.Restore)
		users.PUT("/:id/password", userController.UpdatePassword)
	}

	return &Router{
		Engine: r,
		Config: cfg,
		Logger: logger,
	}
}
