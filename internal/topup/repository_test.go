package topup

import (
	"context"
	"database/sql"
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

func topupRow(orderID string, userID int, amountCents int64, status, refID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_id", "user_id", "amount_cents", "status", "ref_id", "created_at", "updated_at"}).
		AddRow(1, orderID, userID, amountCents, status, refID, time.Now(), time.Now())
}

func TestRepository_CompleteAndCredit(t *testing.T) {
	t.Run("flips pending and credits the wallet atomically", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE wallet_topups").
			WithArgs("order-1", "000ABC").
			WillReturnRows(topupRow("order-1", 1, 50000, StatusCompleted, "000ABC"))
		mock.ExpectQuery("SELECT id, balance_cents, held_cents").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "held_cents"}).AddRow(3, 1000, 0))
		mock.ExpectExec("UPDATE wallets").
			WithArgs(int64(51000), 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO wallet_transactions").
			WithArgs(3, int64(50000), "order-1", int64(51000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		completed, err := repo.CompleteAndCredit(context.Background(), "order-1", "000ABC")

		assert.NoError(t, err)
		assert.Equal(t, StatusCompleted, completed.Status)
		if assert.NotNil(t, completed.RefID) {
			assert.Equal(t, "000ABC", *completed.RefID)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replayed callback loses the status race", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE wallet_topups").
			WithArgs("order-1", "000ABC").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT status FROM wallet_topups").
			WithArgs("order-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(StatusCompleted))
		mock.ExpectRollback()

		_, err := repo.CompleteAndCredit(context.Background(), "order-1", "000ABC")

		assert.ErrorIs(t, err, ErrAlreadyCompleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE wallet_topups").
			WithArgs("nope", "000ABC").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery("SELECT status FROM wallet_topups").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.CompleteAndCredit(context.Background(), "nope", "000ABC")

		assert.ErrorIs(t, err, ErrTopupNotFound)
	})

	t.Run("creates the wallet when the user has none", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE wallet_topups").
			WithArgs("order-2", "000XYZ").
			WillReturnRows(topupRow("order-2", 7, 20000, StatusCompleted, "000XYZ"))
		mock.ExpectQuery("SELECT id, balance_cents, held_cents").
			WithArgs(7).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO wallets").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "held_cents"}).AddRow(9, 0, 0))
		mock.ExpectExec("UPDATE wallets").
			WithArgs(int64(20000), 9).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO wallet_transactions").
			WithArgs(9, int64(20000), "order-2", int64(20000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		_, err := repo.CompleteAndCredit(context.Background(), "order-2", "000XYZ")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Fail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE wallet_topups").
		WithArgs("order-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Fail(context.Background(), "order-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByOrderID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM wallet_topups").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByOrderID(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrTopupNotFound)
}
