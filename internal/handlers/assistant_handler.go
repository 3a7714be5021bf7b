package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/metrics"
	"rafiq/internal/middleware"
	"rafiq/internal/models"
	"rafiq/internal/services"
	"rafiq/pkg/rafiqai"
)

// AssistantHandler answers chat turns over HTTP.
type AssistantHandler struct {
	assistant     *services.AssistantService
	conversations *services.ConversationService
	logger        *logrus.Logger
}

// NewAssistantHandler creates the assistant handler.
func NewAssistantHandler(assistant *services.AssistantService, conversations *services.ConversationService, logger *logrus.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant:     assistant,
		conversations: conversations,
		logger:        logger,
	}
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
	Language       string `json:"language"`
}

type chatResponse struct {
	ConversationID  string                    `json:"conversation_id"`
	Content         string                    `json:"content"`
	Source          string                    `json:"source"`
	Confidence      float64                   `json:"confidence"`
	Recommendations []services.Recommendation `json:"recommendations,omitempty"`
}

// Chat answers one turn. Without a conversation_id a new conversation is
// opened and its id returned. Gateway failures degrade to the offline
// knowledge table; this endpoint only errors on bad input or storage.
func (h *AssistantHandler) Chat(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	language := req.Language
	if language == "" {
		if v, ok := c.Get("language"); ok {
			language, _ = v.(string)
		}
	}

	ctx := c.Request.Context()

	conversationID := req.ConversationID
	if conversationID == "" {
		conversation, err := h.conversations.CreateConversation(ctx, userID, "", language, req.Message)
		if err != nil {
			h.logger.Errorf("Failed to create conversation: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Failed to create conversation",
				Message: err.Error(),
			})
			return
		}
		conversationID = conversation.ID
	}

	if _, err := h.conversations.AppendMessage(ctx, userID, conversationID, &models.Message{
		Role:    "user",
		Content: req.Message,
	}); err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrConversationNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "Failed to store message", Message: err.Error()})
		return
	}

	history, err := h.conversations.History(ctx, userID, conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load history", Message: err.Error()})
		return
	}

	turns := make([]rafiqai.Message, 0, len(history))
	for _, msg := range history {
		turns = append(turns, rafiqai.Message{Role: msg.Role, Content: msg.Content})
	}

	reply := h.assistant.GenerateChatResponse(ctx, conversationID, turns, language)
	metrics.IncAssistantAnswer(reply.Source)

	if _, err := h.conversations.AppendMessage(ctx, userID, conversationID, &models.Message{
		Role:       "assistant",
		Content:    reply.Content,
		Confidence: reply.Confidence,
		Source:     reply.Source,
	}); err != nil {
		h.logger.Errorf("Failed to store assistant reply: %v", err)
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID:  conversationID,
		Content:         reply.Content,
		Source:          reply.Source,
		Confidence:      reply.Confidence,
		Recommendations: reply.Recommendations,
	})
}

// Status reports gateway health and answer counters.
func (h *AssistantHandler) Status(c *gin.Context) {
	status := h.assistant.GetStatus(c.Request.Context())

	ai, fallback := metrics.AssistantSnapshot()
	status["answers_ai"] = ai
	status["answers_fallback"] = fallback

	c.JSON(http.StatusOK, status)
}
