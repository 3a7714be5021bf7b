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

// KnowledgeItem is one entry of the assembled knowledge base.
type KnowledgeItem struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	Type      string `json:"type"` // description, faq, step
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Language  string `json:"language"`
}

// KnowledgeSearchResult is one hit of a knowledge search.
type KnowledgeSearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// KnowledgeService assembles searchable knowledge from the service catalog.
type KnowledgeService struct {
	db       *gorm.DB
	resolver *Resolver
	logger   *logrus.Logger
}

// NewKnowledgeService creates a knowledge service. The resolver backs
// searches when the catalog text search finds nothing.
func NewKnowledgeService(db *gorm.DB, resolver *Resolver, logger *logrus.Logger) *KnowledgeService {
	if logger == nil {
		logger = logrus.New()
	}
	if resolver == nil {
		resolver = NewResolver(DefaultKnowledgeTable())
	}

	return &KnowledgeService{
		db:       db,
		resolver: resolver,
		logger:   logger,
	}
}

// KnowledgeBaseRequest filters the assembled knowledge base.
type KnowledgeBaseRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Language string `form:"language"`
}

// GetKnowledgeBase flattens active services into knowledge items: one
// description per service plus one item per FAQ entry and procedure step.
func (s *KnowledgeService) GetKnowledgeBase(ctx context.Context, req *KnowledgeBaseRequest) ([]KnowledgeItem, error) {
	query := s.db.WithContext(ctx).
		Preload("FAQ").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
		}).
		Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	var services []models.Service
	if err := query.Order("id ASC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	language := req.Language
	if language == "" {
		language = "fr"
	}

	items := make([]KnowledgeItem, 0, len(services))
	for _, service := range services {
		title, description := localizedService(&service, language)

		items = append(items, KnowledgeItem{
			ID:        service.ID + ":description",
			ServiceID: service.ID,
			Type:      "description",
			Title:     title,
			Content:   description,
			Category:  service.Category,
			Language:  language,
		})
		for _, faq := range service.FAQ {
			items = append(items, KnowledgeItem{
				ID:        fmt.Sprintf("%s:faq:%d", service.ID, faq.ID),
				ServiceID: service.ID,
				Type:      "faq",
				Title:     faq.Question,
				Content:   faq.Answer,
				Category:  service.Category,
				Language:  language,
			})
		}
		for _, step := range service.Steps {
			items = append(items, KnowledgeItem{
				ID:        fmt.Sprintf("%s:step:%d", service.ID, step.Order),
				ServiceID: service.ID,
				Type:      "step",
				Title:     step.Title,
				Content:   step.Description,
				Category:  service.Category,
				Language:  language,
			})
		}
	}

	if req.Search != "" {
		needle := strings.ToLower(req.Search)
		filtered := items[:0]
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Title), needle) ||
				strings.Contains(strings.ToLower(item.Content), needle) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	return items, nil
}

// SearchKnowledge finds services matching a free text query. When the
// catalog search comes up empty the offline knowledge table takes over, so
// the endpoint keeps answering even with an empty database.
func (s *KnowledgeService) SearchKnowledge(ctx context.Context, query string, limit int) ([]KnowledgeSearchResult, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	searchTerm := "%" + strings.ToLower(query) + "%"
	var services []models.Service
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(title_fr) LIKE ? OR LOWER(title_ar) LIKE ? OR LOWER(description_fr) LIKE ? OR LOWER(description_ar) LIKE ?",
			searchTerm, searchTerm, searchTerm, searchTerm).
		Order("id ASC").
		Limit(limit).
		Find(&services).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search services: %w", err)
	}

	results := make([]KnowledgeSearchResult, 0, len(services))
	for _, service := range services {
		title, description := localizedService(&service, "fr")
		results = append(results, KnowledgeSearchResult{
			ID:          service.ID,
			Title:       title,
			Description: description,
			Category:    service.Category,
		})
	}

	if len(results) == 0 {
		results = s.resolverResults(ctx, query, limit)
	}

	return results, nil
}

// resolverResults maps the fallback resolver's recommendations back onto
// catalog rows where they exist.
func (s *KnowledgeService) resolverResults(ctx context.Context, query string, limit int) []KnowledgeSearchResult {
	resolved := s.resolver.Resolve(query, "fr")
	if resolved.Source == SourceDefault {
		return []KnowledgeSearchResult{}
	}

	results := make([]KnowledgeSearchResult, 0, len(resolved.Recommendations))
	for _, rec := range resolved.Recommendations {
		if len(results) >= limit {
			break
		}

		result := KnowledgeSearchResult{ID: rec.ID, Title: rec.Title}
		var service models.Service
		if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", rec.ID, true).First(&service).Error; err == nil {
			title, description := localizedService(&service, "fr")
			result.Title = title
			result.Description = description
			result.Category = service.Category
		}
		results = append(results, result)
	}

	return results
}

func localizedService(service *models.Service, language string) (title, description string) {
	if language == "ar" && service.TitleAr != "" {
		return service.TitleAr, service.DescriptionAr
	}
	return service.TitleFr, service.DescriptionFr
}
