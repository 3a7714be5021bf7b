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

// ConversationService manages citizen chat history.
type ConversationService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewConversationService creates a conversation service.
func NewConversationService(db *gorm.DB, logger *logrus.Logger) *ConversationService {
	if logger == nil {
		logger = logrus.New()
	}

	return &ConversationService{
		db:     db,
		logger: logger,
	}
}

// ConversationListRequest carries the list query parameters.
type ConversationListRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Search   string `form:"search"`
	Language string `form:"language"`
}

// ConversationSummary is a conversation without its message bodies.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Language     string    `json:"language"`
	Tags         string    `json:"tags,omitempty"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrConversationNotFound covers both missing rows and rows owned by
// someone else, so handlers cannot leak which one happened.
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// ListConversations returns the caller's active conversations, newest first.
func (s *ConversationService) ListConversations(ctx context.Context, userID uint, req *ConversationListRequest) ([]ConversationSummary, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id = ? AND is_active = ?", userID, true)

	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", searchTerm, searchTerm)
	}
	if req.Language != "" {
		query = query.Where("language = ?", req.Language)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	var conversations []models.Conversation
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("updated_at DESC").Offset(offset).Limit(req.PageSize).Find(&conversations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		var count int64
		s.db.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&count)
		summaries = append(summaries, ConversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			Language:     conv.Language,
			Tags:         conv.Tags,
			MessageCount: count,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
		})
	}

	return summaries, total, nil
}

// GetConversation loads one conversation with its messages in order.
func (s *ConversationService) GetConversation(ctx context.Context, userID uint, conversationID string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Where("id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		First(&conversation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return &conversation, nil
}

// CreateConversation opens a new conversation. An empty title is derived
// from the first message.
func (s *ConversationService) CreateConversation(ctx context.Context, userID uint, title, language, firstMessage string) (*models.Conversation, error) {
	if language == "" {
		language = "fr"
	}
	if title == "" {
		title = DeriveTitle(firstMessage)
	}

	conversation := &models.Conversation{
		ID:       uuid.New().String(),
		UserID:   userID,
		Title:    title,
		Language: language,
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Infof("Created conversation %s for user %d", conversation.ID, userID)

	return conversation, nil
}

// AppendMessage stores one chat turn. Messages are append only.
func (s *ConversationService) AppendMessage(ctx context.Context, userID uint, conversationID string, msg *models.Message) (*models.Message, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msg.ID = 0
	msg.ConversationID = conversationID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		UpdateColumn("updated_at", time.Now())

	return msg, nil
}

// History returns a conversation's turns as gateway messages, oldest first.
func (s *ConversationService) History(ctx context.Context, userID uint, conversationID string) ([]models.Message, error) {
	conversation, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return conversation.Messages, nil
}

// DeleteConversation hides a conversation. Rows stay for audit.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID uint, conversationID string) error {
	result := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to delete conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}

	s.logger.Infof("Deleted conversation %s for user %d", conversationID, userID)

	return nil
}

// UpdateTitle renames a conversation.
func (s *ConversationService) UpdateTitle(ctx context.Context, userID uint, conversationID, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must not be empty")
	}

	result := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		Update("title", title)
	if result.Error != nil {
		return fmt.Errorf("failed to update title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}

	return nil
}

// DeriveTitle builds a conversation title from its opening message.
func DeriveTitle(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	if title == "" {
		return "Nouvelle conversation"
	}

	runes := []rune(title)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return title
}
