package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rafiq/internal/models"
)

// DocumentService tracks administrative document requests.
type DocumentService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(db *gorm.DB, logger *logrus.Logger) *DocumentService {
	if logger == nil {
		logger = logrus.New()
	}

	return &DocumentService{
		db:     db,
		logger: logger,
	}
}

// DocumentCreateRequest opens a document request.
type DocumentCreateRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
	Notes     string `json:"notes"`
}

// ErrDocumentNotFound reports a missing document request.
var ErrDocumentNotFound = fmt.Errorf("document request not found")

// statusTransitions is the allowed document lifecycle. Rejection is final
// and only possible before the document is ready.
var statusTransitions = map[string][]string{
	"pending":    {"processing", "rejected"},
	"processing": {"ready", "rejected"},
	"ready":      {"delivered"},
}

// CreateDocumentRequest opens a request and assigns its public reference.
func (s *DocumentService) CreateDocumentRequest(ctx context.Context, userID uint, req *DocumentCreateRequest) (*models.DocumentRequest, error) {
	doc := &models.DocumentRequest{
		Reference:   generateReference(),
		UserID:      userID,
		ServiceID:   req.ServiceID,
		Status:      "pending",
		Notes:       req.Notes,
		SubmittedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document request: %w", err)
	}

	s.logger.Infof("Created document request %s for user %d", doc.Reference, userID)

	return doc, nil
}

// GetByReference loads one request by its public reference. Citizens only
// see their own requests; pass userID 0 for the admin view.
func (s *DocumentService) GetByReference(ctx context.Context, userID uint, reference string) (*models.DocumentRequest, error) {
	query := s.db.WithContext(ctx).Where("reference = ?", reference)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var doc models.DocumentRequest
	if err := query.First(&doc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document request: %w", err)
	}

	return &doc, nil
}

// ListForUser returns a citizen's requests, newest first.
func (s *DocumentService) ListForUser(ctx context.Context, userID uint) ([]models.DocumentRequest, error) {
	var docs []models.DocumentRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC, id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document requests: %w", err)
	}

	return docs, nil
}

// UpdateStatus advances a request along its lifecycle.
func (s *DocumentService) UpdateStatus(ctx context.Context, reference, status, notes string) (*models.DocumentRequest, error) {
	doc, err := s.GetByReference(ctx, 0, reference)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(doc.Status, status) {
		return nil, fmt.Errorf("cannot move document from %s to %s", doc.Status, status)
	}

	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["notes"] = notes
	}

	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update document status: %w", err)
	}

	s.logger.Infof("Document %s moved from %s to %s", reference, doc.Status, status)

	return s.GetByReference(ctx, 0, reference)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// generateReference builds a citizen-facing reference like RAF-2026-1A2B3C4D.
func generateReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("RAF-%d-%s", time.Now().Year(), suffix)
}
