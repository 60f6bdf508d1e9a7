// internal/controller/auth_controller.go
package controller

import (
	"blog-api/internal/errs"
	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/service"
	"blog-api/internal/utils"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	userService service.UserService
	logger      logger.Logger
}

func NewAuthController(
	userService service.UserService,
	logger logger.Logger,
) *AuthController {
	return &AuthController{
		userService: userService,
		logger:      logger.With(zap.String("module", "auth_controller")),
	}
}

func (c *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	user, err := c.userService.Register(ctx.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Created(ctx, user)
}

func (c *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	res, err := c.userService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

func (c *AuthController) Logout(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, errs.ErrUnauthenticated)
		return
	}
	if err := c.userService.Logout(ctx.Request.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
		c.logger.Error("logout failed", zap.Uint("user_id", identity.ID), zap.Error(err))
		utils.Error(ctx, err)
		return
	}
	utils.Message(ctx, "logout successful")
}

// Me returns the caller's own user record.
func (c *AuthController) Me(ctx *gin.Context) {
	identity, ok := middleware.CurrentIdentity(ctx)
	if !ok {
		utils.Error(ctx, errs.ErrUnauthenticated)
		return
	}
	user, err := c.userService.GetUser(ctx.Request.Context(), identity.ID)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, user)
}
