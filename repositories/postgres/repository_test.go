package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/repositories"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

func TestPassageRepository_LoadAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db, nil)

	rows := sqlmock.NewRows([]string{"text", "source", "embedding"}).
		AddRow("Pro plan costs $49", "pricing.pdf", "{0.1,0.2}").
		AddRow("Invite teammates", "onboarding.pdf", "{0.3,0.4}")
	mock.ExpectQuery("SELECT text, source, embedding FROM passages ORDER BY position").WillReturnRows(rows)

	passages, err := repo.LoadAll(context.Background())

	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "pricing.pdf", passages[0].Source)
	assert.Equal(t, []float64{0.1, 0.2}, passages[0].Embedding)
	assert.Equal(t, "Invite teammates", passages[1].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPassageRepository_LoadAll_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db, nil)

	mock.ExpectQuery("SELECT text").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.LoadAll(context.Background())
	assert.ErrorContains(t, err, "failed to load passages")
}

func TestPassageRepository_ReplaceAll(t *testing.T) {
	passages := []models.Passage{
		{Text: "a", Source: "x.pdf", Embedding: []float64{1, 0}},
		{Text: "b", Source: "y.pdf", Embedding: []float64{0, 1}},
	}

	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPassageRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM passages").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("INSERT INTO passages").
			WithArgs(0, "x.pdf", "a", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO passages").
			WithArgs(1, "y.pdf", "b", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.ReplaceAll(context.Background(), passages))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on insert failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPassageRepository(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM passages").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO passages").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := repo.ReplaceAll(context.Background(), passages)
		assert.ErrorContains(t, err, "failed to insert passage 0")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins an outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPassageRepository(db, nil)
		txMgr := NewTransactionManager(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM passages").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := txMgr.InTransaction(context.Background(), func(ctx context.Context, _ repositories.Transaction) error {
			return repo.ReplaceAll(ctx, nil)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPassageRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassageRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM passages")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestRoutingLogRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutingLogRepository(db, nil)

	entry := models.NewRoutingLogEntry("How much is Pro?", models.ClassificationSimple, "llama-3.1-8b-instant", 320).
		WithRequest("req-1", "s-1").
		WithFlagged(false)

	mock.ExpectExec("INSERT INTO routing_logs").
		WithArgs(entry.ID, "req-1", "s-1", "How much is Pro?", entry.Classification,
			"llama-3.1-8b-instant", int64(320), false, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutingLogRepository_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoutingLogRepository(db, nil)

	id := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "request_id", "session_id", "query", "classification", "model_used", "latency_ms", "flagged", "created_at"}).
		AddRow(id.String(), "req-1", "s-1", "why is sync failing", "complex", "llama-3.3-70b-versatile", int64(900), true, now)
	mock.ExpectQuery("SELECT id, request_id").WithArgs(10).WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, models.ClassificationComplex, entries[0].Classification)
	assert.True(t, entries[0].Flagged)
	assert.Equal(t, int64(900), entries[0].LatencyMs)
}

func TestDB_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		assert.NoError(t, db.HealthCheck(context.Background()))
	})

	t.Run("ping failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		assert.ErrorContains(t, db.HealthCheck(context.Background()), "health check failed")
	})
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS passages").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewRepositoryFactoryFromDB(db, zap.NewNop()).InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
