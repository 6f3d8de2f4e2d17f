package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func optionRow(id, psychologistID int, priceCents int64, duration int, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "psychologist_id", "title", "description", "price_cents", "duration_minutes", "is_active", "created_at"}).
		AddRow(id, psychologistID, "Standard session", "", priceCents, duration, active, time.Now())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO service_options").
		WithArgs(2, "Standard session", "", int64(9000), 60).
		WillReturnRows(optionRow(1, 2, 9000, 60, true))

	opt, err := repo.Create(context.Background(), 2, "Standard session", "", 9000, 60)

	assert.NoError(t, err)
	assert.Equal(t, int64(9000), opt.PriceCents)
	assert.Equal(t, 60, opt.DurationMinutes)
	assert.True(t, opt.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM service_options").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestRepository_ListByPsychologist_OnlyActive(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM service_options WHERE psychologist_id = \\$1 AND is_active = TRUE").
		WithArgs(2).
		WillReturnRows(optionRow(1, 2, 9000, 60, true))

	opts, err := repo.ListByPsychologist(context.Background(), 2, true)

	assert.NoError(t, err)
	assert.Len(t, opts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Deactivate(t *testing.T) {
	t.Run("only the owner can deactivate", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE service_options").
			WithArgs(1, 3).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Deactivate(context.Background(), 1, 3)

		assert.ErrorIs(t, err, ErrOptionNotFound)
	})

	t.Run("owner deactivates", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE service_options").
			WithArgs(1, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Deactivate(context.Background(), 1, 2)

		assert.NoError(t, err)
	})
}
