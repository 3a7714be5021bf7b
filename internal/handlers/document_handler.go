package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/middleware"
	"rafiq/internal/services"
)

// DocumentHandler tracks document requests.
type DocumentHandler struct {
	documents *services.DocumentService
	logger    *logrus.Logger
}

// NewDocumentHandler creates the document handler.
func NewDocumentHandler(documents *services.DocumentService, logger *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// Create opens a document request for the caller.
func (h *DocumentHandler) Create(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	var req services.DocumentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	doc, err := h.documents.CreateDocumentRequest(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Errorf("Failed to create document request: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create document request", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// List returns the caller's document requests.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}

	docs, err := h.documents.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list document requests", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs, "total": len(docs)})
}

// Get returns one request by reference.
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: err.Error()})
		return
	}
	if role, _ := c.Get("role"); role == "admin" {
		userID = 0
	}

	doc, err := h.documents.GetByReference(c.Request.Context(), userID, c.Param("reference"))
	if err != nil {
		if err == services.ErrDocumentNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document request not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load document request", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

type documentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=processing ready delivered rejected"`
	Notes  string `json:"notes"`
}

// UpdateStatus advances a request along its lifecycle. Admin only.
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	var req documentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	doc, err := h.documents.UpdateStatus(c.Request.Context(), c.Param("reference"), req.Status, req.Notes)
	if err != nil {
		if err == services.ErrDocumentNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document request not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid status transition", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}
