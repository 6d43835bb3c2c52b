package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arturz777/dlyq/pkg/auth"
)

// SocketServer принимает websocket подключения
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uint, role string) error
}

// WSHandler точка подключения realtime клиентов. Токен передается в ?token=.
type WSHandler struct {
	hub    SocketServer
	auth   *auth.AuthMiddleware
	logger *zap.Logger
}

func NewWSHandler(hub SocketServer, authMiddleware *auth.AuthMiddleware, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		auth:   authMiddleware,
		logger: logger.Named("WSHandler"),
	}
}

func (h *WSHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws", h.auth.OptionalAuth(), h.Connect)
}

// Connect без токена подключает анонимного клиента, который получает только общий канал
func (h *WSHandler) Connect(c *gin.Context) {
	userID := auth.GetUserID(c)
	if err := h.hub.ServeWS(c.Writer, c.Request, userID, auth.GetRole(c)); err != nil {
		// ответ об ошибке апгрейда уже записан
		h.logger.Debug("не удалось подключить websocket клиента", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
}
