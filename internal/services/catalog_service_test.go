package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"rafiq/internal/models"
)

func TestCatalogService_CreateAndGet(t *testing.T) {
	svc := NewCatalogService(newServiceTestDB(t), silentLogger())

	created, err := svc.CreateService(context.Background(), &ServiceCreateRequest{
		ID:       "svc_carte_grise",
		TitleFr:  "Carte grise",
		TitleAr:  "البطاقة الرمادية",
		Category: "transport",
		Steps: []ServiceStepRequest{
			{Order: 1, Title: "Dossier", Description: "Préparer le dossier."},
			{Order: 2, Title: "Dépôt", Description: "Déposer à la wilaya."},
		},
		FAQ: []ServiceFAQRequest{
			{Question: "Combien ça coûte ?", Answer: "Selon la puissance fiscale."},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Len(t, created.Steps, 2)
	assert.Len(t, created.FAQ, 1)

	loaded, err := svc.GetService(context.Background(), "svc_carte_grise")
	require.NoError(t, err)
	assert.Equal(t, "Carte grise", loaded.TitleFr)
	assert.Equal(t, "Dossier", loaded.Steps[0].Title)
}

func TestCatalogService_GetMissing(t *testing.T) {
	svc := NewCatalogService(newServiceTestDB(t), silentLogger())

	_, err := svc.GetService(context.Background(), "svc_inconnu")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCatalogService_ListFiltersByCategory(t *testing.T) {
	db := newServiceTestDB(t)
	seedCatalog(t, db)
	svc := NewCatalogService(db, silentLogger())

	services, total, err := svc.ListServices(context.Background(), &ServiceListRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, services, 2)

	services, total, err = svc.ListServices(context.Background(), &ServiceListRequest{Page: 1, PageSize: 20, Category: "identite"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, services, 1)
	assert.Equal(t, "svc_passport", services[0].ID)

	services, _, err = svc.ListServices(context.Background(), &ServiceListRequest{Page: 1, PageSize: 20, Search: "naissance"})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "svc_birth_certificate", services[0].ID)
}

func TestCatalogService_UpdatePatchesFields(t *testing.T) {
	db := newServiceTestDB(t)
	seedCatalog(t, db)
	svc := NewCatalogService(db, silentLogger())

	title := "Passeport biométrique 48 pages"
	updated, err := svc.UpdateService(context.Background(), "svc_passport", &ServiceUpdateRequest{TitleFr: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.TitleFr)
	assert.Equal(t, "identite", updated.Category)

	_, err = svc.UpdateService(context.Background(), "svc_inconnu", &ServiceUpdateRequest{TitleFr: &title})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCatalogService_DeleteDeactivates(t *testing.T) {
	db := newServiceTestDB(t)
	seedCatalog(t, db)
	svc := NewCatalogService(db, silentLogger())

	require.NoError(t, svc.DeleteService(context.Background(), "svc_passport"))

	_, err := svc.GetService(context.Background(), "svc_passport")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, total, err := svc.ListServices(context.Background(), &ServiceListRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	assert.ErrorIs(t, svc.DeleteService(context.Background(), "svc_passport"), ErrServiceNotFound)
}

func TestCatalogService_Categories(t *testing.T) {
	db := newServiceTestDB(t)
	seedCatalog(t, db)
	svc := NewCatalogService(db, silentLogger())

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"etat-civil", "identite"}, categories)
}

func TestCatalogService_StepOrderingQuotesForPostgres(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=rafiq dbname=rafiq",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	var steps []models.ServiceStep
	stmt := db.Model(&models.ServiceStep{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Find(&steps).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `ORDER BY "order"`)
	assert.NotContains(t, sql, "`")
}
