package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var campaignColumns = []string{"id", "tenant_id", "name", "created_by", "nodes", "edges", "created_at", "updated_at"}

// --- CampaignRepository ---

func TestCampaignRepository_ListByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCampaignRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "campaigns" WHERE tenant_id = $1 ORDER BY updated_at DESC`)).
		WillReturnRows(sqlmock.NewRows(campaignColumns).
			AddRow("c-2", "org-1", "Summer", "user-1", []byte(`[]`), []byte(`[]`), now, now).
			AddRow("c-1", "org-1", "Spring", "user-1", []byte(`[{"id":"company-1"}]`), []byte(`[]`), now, now))

	campaigns, err := repo.ListByTenant(context.Background(), "org-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	assert.Equal(t, "Summer", campaigns[0].Name)
	assert.JSONEq(t, `[{"id":"company-1"}]`, string(campaigns[1].Nodes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_CountByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "campaigns" WHERE tenant_id = $1`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByTenant(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestCampaignRepository_GetByTenantAndID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "campaigns" WHERE tenant_id = $1 AND id = $2`)).
		WillReturnRows(sqlmock.NewRows(campaignColumns))

	_, err := repo.GetByTenantAndID(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignRepository_GetByTenantAndID_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCampaignRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "campaigns"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByTenantAndID(context.Background(), "org-1", "c-1")
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignRepository_DeleteByTenantAndID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCampaignRepository(db)
	query := regexp.QuoteMeta(`DELETE FROM "campaigns" WHERE tenant_id = $1 AND id = $2`)

	mock.ExpectBegin()
	mock.ExpectExec(query).WithArgs("org-1", "c-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteByTenantAndID(context.Background(), "org-1", "c-1"))

	mock.ExpectBegin()
	mock.ExpectExec(query).WithArgs("org-2", "c-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.DeleteByTenantAndID(context.Background(), "org-2", "c-1"), ErrCampaignNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Tenant records ---

func TestProductRepository_GetByTenantAndIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	records, err := repo.GetByTenantAndIDs(context.Background(), "org-1", nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE tenant_id = $1 AND id IN ($2,$3)`)).
		WithArgs("org-1", "p-1", "p-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "price"}).
			AddRow("p-1", "org-1", "Cold brew", "4.50"))

	records, err = repo.GetByTenantAndIDs(context.Background(), "org-1", []string{"p-1", "p-2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cold brew", records[0].Name)
	assert.Equal(t, "4.50", records[0].Price)
}

func TestPersonaRepository_ListByTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPersonaRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "personas" WHERE tenant_id = $1 ORDER BY name ASC`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "age_range"}).
			AddRow("pe-1", "org-1", "Commuter", "25-34"))

	records, err := repo.ListByTenant(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "25-34", records[0].AgeRange)
}

func TestOrganizationRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "organizations" WHERE id IN ($1,$2) ORDER BY name ASC`)).
		WithArgs("org-1", "org-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("org-1", "Acme"))

	orgs, err := repo.List(context.Background(), []string{"org-1", "org-2"})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme", orgs[0].Name)
}

// --- GenerationLogRepository ---

func TestGenerationLogRepository_MarkDelivered(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGenerationLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "generation_logs" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkDelivered(context.Background(), "corr-1", "https://x/img.png")
	assert.ErrorIs(t, err, ErrGenerationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
