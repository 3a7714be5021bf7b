package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rafiq/internal/models"
)

// FeedbackService stores and aggregates citizen feedback.
type FeedbackService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(db *gorm.DB, logger *logrus.Logger) *FeedbackService {
	if logger == nil {
		logger = logrus.New()
	}

	return &FeedbackService{
		db:     db,
		logger: logger,
	}
}

// FeedbackCreateRequest submits one feedback entry.
type FeedbackCreateRequest struct {
	ServiceID *string `json:"service_id"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Category  string  `json:"category"`
	Message   string  `json:"message"`
}

// FeedbackListRequest carries the admin list query parameters.
type FeedbackListRequest struct {
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
	ServiceID string `form:"service_id"`
	Source    string `form:"source"`
	MinRating int    `form:"min_rating"`
}

// FeedbackStats aggregates ratings for the admin dashboard.
type FeedbackStats struct {
	Total         int64   `json:"total"`
	AverageRating float64 `json:"average_rating"`
	FromSync      int64   `json:"from_sync"`
}

// CreateFeedback stores a feedback entry submitted online.
func (s *FeedbackService) CreateFeedback(ctx context.Context, userID uint, req *FeedbackCreateRequest) (*models.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	feedback := &models.Feedback{
		ServiceID: req.ServiceID,
		Rating:    req.Rating,
		Category:  req.Category,
		Message:   req.Message,
		Source:    "online",
	}
	if userID != 0 {
		feedback.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	s.logger.Infof("Stored feedback %d (rating %d)", feedback.ID, feedback.Rating)

	return feedback, nil
}

// ListFeedback returns feedback entries, newest first.
func (s *FeedbackService) ListFeedback(ctx context.Context, req *FeedbackListRequest) ([]models.Feedback, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Feedback{})

	if req.ServiceID != "" {
		query = query.Where("service_id = ?", req.ServiceID)
	}
	if req.Source != "" {
		query = query.Where("source = ?", req.Source)
	}
	if req.MinRating > 0 {
		query = query.Where("rating >= ?", req.MinRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	var feedback []models.Feedback
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&feedback).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}

	return feedback, total, nil
}

// GetStats aggregates feedback for the admin dashboard.
func (s *FeedbackService) GetStats(ctx context.Context, serviceID string) (*FeedbackStats, error) {
	stats := &FeedbackStats{}

	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Feedback{})
		if serviceID != "" {
			query = query.Where("service_id = ?", serviceID)
		}
		return query
	}

	if err := scoped().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	row := struct{ Avg float64 }{}
	if err := scoped().Select("AVG(rating) as avg").Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	stats.AverageRating = row.Avg

	if err := scoped().Where("source = ?", "sync").Count(&stats.FromSync).Error; err != nil {
		return nil, fmt.Errorf("failed to count synced feedback: %w", err)
	}

	return stats, nil
}
