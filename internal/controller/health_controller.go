package controller

import (
	"context"
	"net/http"
	"time"

	"blog-api/internal/utils"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthController struct {
	db     *gorm.DB
	logger logger.Logger
}

func NewHealthController(db *gorm.DB, logger logger.Logger) *HealthController {
	return &HealthController{
		db:     db,
		logger: logger.With(zap.String("module", "health")),
	}
}

func (c *HealthController) Check(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		c.logger.Error("database ping failed", zap.Error(err))
		utils.Fail(ctx, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}
