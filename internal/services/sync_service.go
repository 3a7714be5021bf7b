package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rafiq/internal/models"
)

// SyncPayload is one queued client item replayed after reconnection.
type SyncPayload struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// SyncItemResult reports the outcome of one payload by its batch position.
type SyncItemResult struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	Status string `json:"status"` // synced, error
	Error  string `json:"error,omitempty"`
}

// SyncBatchResult is the response of a sync batch. Clients remove a queue
// entry only when its result says synced.
type SyncBatchResult struct {
	Synced  int              `json:"synced"`
	Errors  int              `json:"errors"`
	Total   int              `json:"total"`
	Results []SyncItemResult `json:"results"`
}

// SyncService replays offline client queues against the database.
type SyncService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(db *gorm.DB, logger *logrus.Logger) *SyncService {
	if logger == nil {
		logger = logrus.New()
	}

	return &SyncService{
		db:     db,
		logger: logger,
	}
}

type syncFeedbackPayload struct {
	ServiceID *string `json:"service_id"`
	Rating    int     `json:"rating"`
	Category  string  `json:"category"`
	Message   string  `json:"message"`
}

// ProcessBatch handles each payload independently. One bad entry never
// blocks the rest of the batch.
func (s *SyncService) ProcessBatch(ctx context.Context, userID uint, payloads []SyncPayload) *SyncBatchResult {
	result := &SyncBatchResult{
		Total:   len(payloads),
		Results: make([]SyncItemResult, 0, len(payloads)),
	}

	for i, payload := range payloads {
		item := SyncItemResult{Index: i, Type: payload.Type, Status: "synced"}

		if err := s.processOne(ctx, userID, payload); err != nil {
			item.Status = "error"
			item.Error = err.Error()
			result.Errors++
			s.logger.Warnf("Sync payload %d (%s) failed for user %d: %v", i, payload.Type, userID, err)
		} else {
			result.Synced++
		}

		result.Results = append(result.Results, item)
	}

	s.logger.Infof("Processed sync batch for user %d: %d synced, %d errors", userID, result.Synced, result.Errors)

	return result
}

func (s *SyncService) processOne(ctx context.Context, userID uint, payload SyncPayload) error {
	switch payload.Type {
	case "feedback":
		return s.syncFeedback(ctx, userID, payload.Payload)
	default:
		return fmt.Errorf("unknown payload type %q", payload.Type)
	}
}

func (s *SyncService) syncFeedback(ctx context.Context, userID uint, raw json.RawMessage) error {
	var payload syncFeedbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid feedback payload: %w", err)
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}

	feedback := &models.Feedback{
		ServiceID: payload.ServiceID,
		Rating:    payload.Rating,
		Category:  payload.Category,
		Message:   payload.Message,
		Source:    "sync",
	}
	if userID != 0 {
		feedback.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	return nil
}
