package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/middleware"
	"rafiq/internal/services"
)

// WebSocketHandler upgrades authenticated clients onto the chat hub.
type WebSocketHandler struct {
	hub    *services.WebSocketHub
	logger *logrus.Logger
}

func NewWebSocketHandler(hub *services.WebSocketHub, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Connect upgrades the request to a WebSocket connection. The conversation
// and language are taken from the query string; language falls back to the
// token claim.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	conversationID := c.Query("conversation_id")
	language := c.Query("language")
	if language == "" {
		if claim, ok := c.Get("language"); ok {
			language, _ = claim.(string)
		}
	}
	if language != "ar" {
		language = "fr"
	}

	h.hub.Serve(c.Writer, c.Request, userID, conversationID, language)
}
