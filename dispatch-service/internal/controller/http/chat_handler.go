package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

// ChatHandler обработчик HTTP запросов чатов
type ChatHandler struct {
	chats ChatService
	auth  *auth.AuthMiddleware
}

func NewChatHandler(chats ChatService, authMiddleware *auth.AuthMiddleware) *ChatHandler {
	return &ChatHandler{
		chats: chats,
		auth:  authMiddleware,
	}
}

func (h *ChatHandler) RegisterRoutes(router *gin.Engine) {
	chatGroup := router.Group("/api/chat", h.auth.AuthRequired())
	{
		chatGroup.POST("", h.CreateChat)
		chatGroup.GET("", h.ListChats)
		chatGroup.GET("/:id/messages", h.ListMessages)
		chatGroup.POST("/:id/messages", h.SendMessage)
		chatGroup.POST("/:id/read", h.MarkRead)
	}
}

func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req entity.CreateChatRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	chat, err := h.chats.CreateChat(c.Request.Context(), auth.GetUserID(c), auth.GetRole(c), req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chats.ListChats(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	messages, err := h.chats.ListMessages(c.Request.Context(), id, auth.GetUserID(c), auth.GetRole(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.SendMessageRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), id, auth.GetUserID(c), auth.GetRole(c), req.Text)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	count, err := h.chats.MarkRead(c.Request.Context(), id, auth.GetUserID(c), auth.GetRole(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"chatId": id, "count": count})
}
