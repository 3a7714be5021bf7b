package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/middleware"
	"rafiq/internal/models"
	"rafiq/internal/services"
)

// ConversationHandler exposes chat history endpoints.
type ConversationHandler struct {
	conversations *services.ConversationService
	logger        *logrus.Logger
}

// NewConversationHandler creates the conversation handler.
func NewConversationHandler(conversations *services.ConversationService, logger *logrus.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        logger,
	}
}

// List returns the caller's conversations without message bodies.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req services.ConversationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	summaries, total, err := h.conversations.ListConversations(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Errorf("Failed to list conversations: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list conversations", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:     summaries,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Pages:    pageCount(total, req.PageSize),
	})
}

// Get returns one conversation with its messages.
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	conversation, err := h.conversations.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if err == services.ErrConversationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Conversation not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load conversation", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

type conversationCreateRequest struct {
	Title        string `json:"title"`
	Language     string `json:"language"`
	FirstMessage string `json:"first_message"`
}

// Create opens a conversation.
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req conversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	conversation, err := h.conversations.CreateConversation(c.Request.Context(), userID, req.Title, req.Language, req.FirstMessage)
	if err != nil {
		h.logger.Errorf("Failed to create conversation: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create conversation", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

type appendMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// AppendMessage stores one turn on an existing conversation.
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	msg, err := h.conversations.AppendMessage(c.Request.Context(), userID, c.Param("id"), &models.Message{
		Role:    req.Role,
		Content: req.Content,
	})
	if err != nil {
		if err == services.ErrConversationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Conversation not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to append message", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Delete hides a conversation from the citizen's list.
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	if err := h.conversations.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		if err == services.ErrConversationNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Conversation not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete conversation", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "conversation deleted"})
}
