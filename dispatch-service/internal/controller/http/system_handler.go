package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/middleware"
)

// SystemHandler служебные маршруты: проверка работоспособности, метрики, внутренний API
type SystemHandler struct {
	retention RetentionService
	internal  *middleware.InternalAuthMiddleware
	logger    *zap.Logger
}

func NewSystemHandler(retention RetentionService, internal *middleware.InternalAuthMiddleware, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		retention: retention,
		internal:  internal,
		logger:    logger.Named("SystemHandler"),
	}
}

func (h *SystemHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internalGroup := router.Group("/internal", h.internal.Required())
	{
		internalGroup.POST("/retention/run", h.RunRetention)
	}
}

func (h *SystemHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunRetention синхронно запускает очистку устаревших заказов
func (h *SystemHandler) RunRetention(c *gin.Context) {
	deleted, err := h.retention.Sweep(c.Request.Context())
	if errors.HandleGinError(c, err) {
		return
	}

	h.logger.Info("очистка запущена вручную", zap.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
