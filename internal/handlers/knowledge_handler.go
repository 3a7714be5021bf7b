package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/services"
)

// KnowledgeHandler serves the assembled knowledge base.
type KnowledgeHandler struct {
	knowledge *services.KnowledgeService
	logger    *logrus.Logger
}

// NewKnowledgeHandler creates the knowledge handler.
func NewKnowledgeHandler(knowledge *services.KnowledgeService, logger *logrus.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledge: knowledge,
		logger:    logger,
	}
}

// GetKnowledgeBase returns knowledge items assembled from the catalog.
func (h *KnowledgeHandler) GetKnowledgeBase(c *gin.Context) {
	var req services.KnowledgeBaseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	items, err := h.knowledge.GetKnowledgeBase(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to assemble knowledge base: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load knowledge base", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

type knowledgeSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// Search finds services matching a free text query.
func (h *KnowledgeHandler) Search(c *gin.Context) {
	var req knowledgeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	results, err := h.knowledge.SearchKnowledge(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Search failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
