package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/middleware"
	"rafiq/internal/services"
)

// FeedbackHandler receives citizen feedback.
type FeedbackHandler struct {
	feedback *services.FeedbackService
	logger   *logrus.Logger
}

// NewFeedbackHandler creates the feedback handler.
func NewFeedbackHandler(feedback *services.FeedbackService, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		logger:   logger,
	}
}

// Create stores a feedback entry submitted online.
func (h *FeedbackHandler) Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req services.FeedbackCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	entry, err := h.feedback.CreateFeedback(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Errorf("Failed to create feedback: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create feedback", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// List returns feedback entries. Admin only.
func (h *FeedbackHandler) List(c *gin.Context) {
	var req services.FeedbackListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	entries, total, err := h.feedback.ListFeedback(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list feedback", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:     entries,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Pages:    pageCount(total, req.PageSize),
	})
}

// Stats aggregates ratings. Admin only.
func (h *FeedbackHandler) Stats(c *gin.Context) {
	stats, err := h.feedback.GetStats(c.Request.Context(), c.Query("service_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to aggregate feedback", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
