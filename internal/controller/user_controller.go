// internal/controller/user_controller.go
package controller

import (
	"net/http"

	"blog-api/internal/middleware"
	"blog-api/internal/model"
	"blog-api/internal/service"
	"blog-api/internal/utils"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserController struct {
	userService service.UserService
	logger      logger.Logger
}

func NewUserController(
	userService service.UserService,
	logger logger.Logger,
) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger.With(zap.String("module", "user_controller")),
	}
}

func (c *UserController) List(ctx *gin.Context) {
	var q listUsersQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	var role model.Role
	if identity, ok := middleware.CurrentIdentity(ctx); ok {
		role = identity.Role
	}
	users, err := c.userService.ListUsers(ctx.Request.Context(), q.Inactive, role)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, users)
}

func (c *UserController) GetUser(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

func (c *UserController) Delete(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if identity, ok := middleware.CurrentIdentity(ctx); ok && identity.ID == id {
		utils.Fail(ctx, http.StatusForbidden, "cannot delete your own account")
		return
	}

	ok, err := c.userService.SoftDeleteUser(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "user not found or already deleted")
		return
	}
	utils.Message(ctx, "user deleted successfully")
}

func (c *UserController) Restore(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	ok, err := c.userService.RestoreUser(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "user not found or not deleted")
		return
	}
	utils.Message(ctx, "user restored successfully")
}

func (c *UserController) UpdatePassword(ctx *gin.Context) {
	id, err := bindID(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	var req passwordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, invalid(err))
		return
	}

	ok, err := c.userService.UpdatePassword(ctx.Request.Context(), id, req.Password)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	if !ok {
		utils.Fail(ctx, http.StatusNotFound, "user not found")
		return
	}
	c.logger.Info("password replaced", zap.Uint("user_id", id))
	utils.Message(ctx, "password updated successfully")
}
