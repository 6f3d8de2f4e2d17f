package withdrawal

import (
	"context"
	"regexp"
	"testing"
	"time"

	"mindwell/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupWithdrawalMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func withdrawalRows(id, userID int, amount int64, status, paymentStatus string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "amount_cents", "payout_method", "status", "payment_status",
		"reject_reason", "wallet_transaction_id", "payment_proof",
		"reviewed_by", "reviewed_at", "paid_at", "created_at", "updated_at",
	}).AddRow(id, userID, amount, "bank: NIC Asia 1234", status, paymentStatus,
		nil, nil, nil, nil, nil, nil, time.Now(), time.Now())
}

func TestApprove_DebitsAndFlipsTogether(t *testing.T) {
	repo, mock, closeFn := setupWithdrawalMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, amount_cents FROM withdrawal_requests WHERE id = $1 AND status = 'PENDING' FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount_cents"}).AddRow(2, int64(10000)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, balance_cents, held_cents FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "held_cents"}).AddRow(3, int64(25000), int64(5000)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(int64(15000), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after)")).
		WithArgs(3, int64(-10000), wallet.TxWithdrawal, wallet.TxPending, "withdrawal:1", int64(15000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE withdrawal_requests SET status = 'APPROVED', payment_status = 'PROCESSING', wallet_transaction_id = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW() WHERE id = $1")).
		WithArgs(1, 11, 99).
		WillReturnRows(withdrawalRows(1, 2, 10000, StatusApproved, PaymentProcessing))
	mock.ExpectCommit()

	w, err := repo.Approve(ctx, 1, 99)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, w.Status)
	require.Equal(t, PaymentProcessing, w.PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_InsufficientAvailableBalance(t *testing.T) {
	repo, mock, closeFn := setupWithdrawalMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = 'PENDING' FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount_cents"}).AddRow(2, int64(10000)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "held_cents"}).AddRow(3, int64(12000), int64(5000)))
	mock.ExpectRollback()

	_, err := repo.Approve(ctx, 1, 99)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_LostRaceTouchesNoWallet(t *testing.T) {
	repo, mock, closeFn := setupWithdrawalMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND status = 'PENDING' FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "amount_cents"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE id = $1)")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Approve(ctx, 1, 99)
	require.ErrorIs(t, err, ErrStatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
