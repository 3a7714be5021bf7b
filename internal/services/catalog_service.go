package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rafiq/internal/models"
)

// CatalogService manages the administrative service catalog.
type CatalogService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(db *gorm.DB, logger *logrus.Logger) *CatalogService {
	if logger == nil {
		logger = logrus.New()
	}

	return &CatalogService{
		db:     db,
		logger: logger,
	}
}

// ServiceListRequest carries the catalog list query parameters.
type ServiceListRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Category string `form:"category"`
	Search   string `form:"search"`
}

// ServiceCreateRequest creates a catalog entry. IDs are natural keys like
// "svc_passport" so offline caches keep stable record keys.
type ServiceCreateRequest struct {
	ID            string               `json:"id" binding:"required"`
	TitleFr       string               `json:"title_fr" binding:"required"`
	TitleAr       string               `json:"title_ar"`
	DescriptionFr string               `json:"description_fr"`
	DescriptionAr string               `json:"description_ar"`
	Category      string               `json:"category"`
	RequiredDocs  string               `json:"required_docs"`
	Steps         []ServiceStepRequest `json:"steps"`
	FAQ           []ServiceFAQRequest  `json:"faq"`
}

type ServiceStepRequest struct {
	Order       int    `json:"order"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type ServiceFAQRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer"`
	Keywords string `json:"keywords"`
}

// ServiceUpdateRequest patches a catalog entry. Nil fields are untouched.
type ServiceUpdateRequest struct {
	TitleFr       *string `json:"title_fr"`
	TitleAr       *string `json:"title_ar"`
	DescriptionFr *string `json:"description_fr"`
	DescriptionAr *string `json:"description_ar"`
	Category      *string `json:"category"`
	RequiredDocs  *string `json:"required_docs"`
	IsActive      *bool   `json:"is_active"`
}

// ErrServiceNotFound reports a missing or deactivated catalog entry.
var ErrServiceNotFound = fmt.Errorf("service not found")

// ListServices returns active catalog entries.
func (s *CatalogService) ListServices(ctx context.Context, req *ServiceListRequest) ([]models.Service, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Service{}).Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(title_fr) LIKE ? OR LOWER(title_ar) LIKE ? OR LOWER(description_fr) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count services: %w", err)
	}

	var services []models.Service
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("id ASC").Offset(offset).Limit(req.PageSize).Find(&services).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list services: %w", err)
	}

	return services, total, nil
}

// GetService loads one catalog entry with its steps and FAQ.
func (s *CatalogService) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	var service models.Service
	err := s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
		}).
		Preload("FAQ").
		Where("id = ? AND is_active = ?", serviceID, true).
		First(&service).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	return &service, nil
}

// CreateService adds a catalog entry with its steps and FAQ.
func (s *CatalogService) CreateService(ctx context.Context, req *ServiceCreateRequest) (*models.Service, error) {
	service := &models.Service{
		ID:            req.ID,
		TitleFr:       req.TitleFr,
		TitleAr:       req.TitleAr,
		DescriptionFr: req.DescriptionFr,
		DescriptionAr: req.DescriptionAr,
		Category:      req.Category,
		RequiredDocs:  req.RequiredDocs,
		IsActive:      true,
	}
	for _, step := range req.Steps {
		service.Steps = append(service.Steps, models.ServiceStep{
			Order:       step.Order,
			Title:       step.Title,
			Description: step.Description,
		})
	}
	for _, faq := range req.FAQ {
		service.FAQ = append(service.FAQ, models.ServiceFAQ{
			Question: faq.Question,
			Answer:   faq.Answer,
			Keywords: faq.Keywords,
		})
	}

	if err := s.db.WithContext(ctx).Create(service).Error; err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.logger.Infof("Created service %s", service.ID)

	return s.GetService(ctx, service.ID)
}

// UpdateService patches a catalog entry.
func (s *CatalogService) UpdateService(ctx context.Context, serviceID string, req *ServiceUpdateRequest) (*models.Service, error) {
	updates := make(map[string]interface{})
	if req.TitleFr != nil {
		updates["title_fr"] = *req.TitleFr
	}
	if req.TitleAr != nil {
		updates["title_ar"] = *req.TitleAr
	}
	if req.DescriptionFr != nil {
		updates["description_fr"] = *req.DescriptionFr
	}
	if req.DescriptionAr != nil {
		updates["description_ar"] = *req.DescriptionAr
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.RequiredDocs != nil {
		updates["required_docs"] = *req.RequiredDocs
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.GetService(ctx, serviceID)
	}

	result := s.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", serviceID).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update service: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrServiceNotFound
	}

	if req.IsActive != nil && !*req.IsActive {
		s.logger.Infof("Deactivated service %s", serviceID)
		var service models.Service
		if err := s.db.WithContext(ctx).Where("id = ?", serviceID).First(&service).Error; err != nil {
			return nil, fmt.Errorf("failed to load service: %w", err)
		}
		return &service, nil
	}

	return s.GetService(ctx, serviceID)
}

// DeleteService deactivates a catalog entry. Rows stay so historical
// feedback and document requests keep their service link.
func (s *CatalogService) DeleteService(ctx context.Context, serviceID string) error {
	result := s.db.WithContext(ctx).Model(&models.Service{}).
		Where("id = ? AND is_active = ?", serviceID, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to delete service: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrServiceNotFound
	}

	s.logger.Infof("Deleted service %s", serviceID)

	return nil
}

// Categories lists the distinct categories of active services.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Service{}).
		Where("is_active = ? AND category <> ''", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}
