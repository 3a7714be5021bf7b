package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rafiq/internal/services"
)

// ServiceHandler exposes the administrative service catalog.
type ServiceHandler struct {
	catalog *services.CatalogService
	logger  *logrus.Logger
}

// NewServiceHandler creates the catalog handler.
func NewServiceHandler(catalog *services.CatalogService, logger *logrus.Logger) *ServiceHandler {
	return &ServiceHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// List returns active catalog entries.
func (h *ServiceHandler) List(c *gin.Context) {
	var req services.ServiceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query", Message: err.Error()})
		return
	}

	entries, total, err := h.catalog.ListServices(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to list services: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list services", Message: err.Error()})
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

// Get returns one catalog entry with steps and FAQ.
func (h *ServiceHandler) Get(c *gin.Context) {
	service, err := h.catalog.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == services.ErrServiceNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Service not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load service", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, service)
}

// Categories lists the catalog categories.
func (h *ServiceHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list categories", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Create adds a catalog entry. Admin only.
func (h *ServiceHandler) Create(c *gin.Context) {
	var req services.ServiceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	service, err := h.catalog.CreateService(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to create service: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create service", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, service)
}

// Update patches a catalog entry. Admin only.
func (h *ServiceHandler) Update(c *gin.Context) {
	var req services.ServiceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	service, err := h.catalog.UpdateService(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if err == services.ErrServiceNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Service not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update service", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, service)
}

// Delete deactivates a catalog entry. Admin only.
func (h *ServiceHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		if err == services.ErrServiceNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Service not found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete service", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "service deleted"})
}
