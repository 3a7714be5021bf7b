package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rafiq/internal/models"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:services_" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.ServiceStep{},
		&models.ServiceFAQ{},
		&models.Feedback{},
		&models.DocumentRequest{},
		&models.Appointment{},
		&models.Conversation{},
		&models.Message{},
	))

	return db
}

func TestConversationService_CreateDerivesTitle(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	long := strings.Repeat("a", 60)
	conv, err := svc.CreateConversation(context.Background(), 1, "", "fr", long)
	require.NoError(t, err)

	assert.Len(t, []rune(conv.Title), 53)
	assert.True(t, strings.HasSuffix(conv.Title, "..."))
	assert.Equal(t, "fr", conv.Language)
	assert.NotEmpty(t, conv.ID)
}

func TestConversationService_CreateKeepsShortTitle(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	conv, err := svc.CreateConversation(context.Background(), 1, "", "ar", "سؤال قصير")
	require.NoError(t, err)
	assert.Equal(t, "سؤال قصير", conv.Title)

	conv, err = svc.CreateConversation(context.Background(), 1, "", "fr", "")
	require.NoError(t, err)
	assert.Equal(t, "Nouvelle conversation", conv.Title)
}

func TestConversationService_AppendAndGetKeepsOrder(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	conv, err := svc.CreateConversation(context.Background(), 1, "Passeport", "fr", "")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"question 1", "réponse 1", "question 2"} {
		role := "user"
		if i == 1 {
			role = "assistant"
		}
		_, err := svc.AppendMessage(context.Background(), 1, conv.ID, &models.Message{
			Role:      role,
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	loaded, err := svc.GetConversation(context.Background(), 1, conv.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 3)
	assert.Equal(t, "question 1", loaded.Messages[0].Content)
	assert.Equal(t, "réponse 1", loaded.Messages[1].Content)
	assert.Equal(t, "question 2", loaded.Messages[2].Content)
}

func TestConversationService_OwnerCheck(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	conv, err := svc.CreateConversation(context.Background(), 1, "Privé", "fr", "")
	require.NoError(t, err)

	_, err = svc.GetConversation(context.Background(), 2, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.AppendMessage(context.Background(), 2, conv.ID, &models.Message{Role: "user", Content: "hi"})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	err = svc.DeleteConversation(context.Background(), 2, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationService_SoftDelete(t *testing.T) {
	db := newServiceTestDB(t)
	svc := NewConversationService(db, silentLogger())

	conv, err := svc.CreateConversation(context.Background(), 1, "À supprimer", "fr", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(context.Background(), 1, conv.ID))

	_, err = svc.GetConversation(context.Background(), 1, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	// row survives for the admin view
	var stored models.Conversation
	require.NoError(t, db.Where("id = ?", conv.ID).First(&stored).Error)
	assert.False(t, stored.IsActive)

	err = svc.DeleteConversation(context.Background(), 1, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationService_ListFiltersAndCounts(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	passport, err := svc.CreateConversation(context.Background(), 1, "Demande de passeport", "fr", "")
	require.NoError(t, err)
	_, err = svc.CreateConversation(context.Background(), 1, "شهادة الميلاد", "ar", "")
	require.NoError(t, err)
	_, err = svc.CreateConversation(context.Background(), 2, "Autre citoyen", "fr", "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.AppendMessage(context.Background(), 1, passport.ID, &models.Message{Role: "user", Content: "msg"})
		require.NoError(t, err)
	}

	summaries, total, err := svc.ListConversations(context.Background(), 1, &ConversationListRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, summaries, 2)

	summaries, total, err = svc.ListConversations(context.Background(), 1, &ConversationListRequest{Page: 1, PageSize: 20, Search: "passeport"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, passport.ID, summaries[0].ID)
	assert.Equal(t, int64(2), summaries[0].MessageCount)

	_, total, err = svc.ListConversations(context.Background(), 1, &ConversationListRequest{Page: 1, PageSize: 20, Language: "ar"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestConversationService_UpdateTitle(t *testing.T) {
	svc := NewConversationService(newServiceTestDB(t), silentLogger())

	conv, err := svc.CreateConversation(context.Background(), 1, "Ancien titre", "fr", "")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTitle(context.Background(), 1, conv.ID, "Nouveau titre"))

	loaded, err := svc.GetConversation(context.Background(), 1, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nouveau titre", loaded.Title)

	assert.Error(t, svc.UpdateTitle(context.Background(), 1, conv.ID, "  "))
}
