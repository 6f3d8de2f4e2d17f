package wallet

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupWalletMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func walletRows(id, userID int, balance, held int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "balance_cents", "held_cents", "currency", "created_at", "updated_at"}).
		AddRow(id, userID, balance, held, "NPR", time.Now(), time.Now())
}

func TestGetOrCreateWallet_WhenNotExists(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance_cents, held_cents, currency, created_at, updated_at FROM wallets WHERE user_id = $1")).
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallets (user_id) VALUES ($1) RETURNING id, user_id, balance_cents, held_cents, currency, created_at, updated_at")).
		WithArgs(10).
		WillReturnRows(walletRows(5, 10, 0, 0))

	w, err := repo.GetOrCreateWallet(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 5, w.ID)
	require.Equal(t, int64(0), w.BalanceCents)
}

func TestCredit_Success(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance_cents, held_cents, currency, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 2000, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, held_cents = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs(int64(7000), int64(0), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id")).
		WithArgs(7, int64(5000), TxDeposit, TxCompleted, "topup:abc", "gateway deposit", int64(7000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Credit(ctx, 20, 5000, TxDeposit, "topup:abc", "gateway deposit")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCharge_InsufficientFunds(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 500, 0))
	mock.ExpectRollback()

	err := repo.Charge(ctx, 20, 9000, TxSessionPayment, "session:1", "session payment")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCharge_RejectsNonPositiveAmount(t *testing.T) {
	repo, _, closeFn := setupWalletMock(t)
	defer closeFn()

	err := repo.Charge(context.Background(), 20, 0, TxSessionPayment, "", "")
	require.ErrorIs(t, err, ErrInvalidAmount)

	err = repo.Credit(context.Background(), 20, -100, TxDeposit, "", "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReserve_PlacesHoldWithoutMovingFunds(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 10000, 0))
	// balance stays put, only the hold grows
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance_cents = $1, held_cents = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs(int64(10000), int64(6000), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(7, int64(-6000), TxSessionReserve, TxPending, "session:3", "escrow hold for session booking", int64(10000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err := repo.Reserve(ctx, 20, 6000, "session:3")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_FailsWhenHeldExceedsAvailable(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	// balance 10000 but 8000 already held: only 2000 is spendable
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 10000, 8000))
	mock.ExpectRollback()

	err := repo.Reserve(context.Background(), 20, 6000, "session:4")
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSettleSession_ChargesPatientAndCreditsPsychologist(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	// patient wallet: 12000 balance, 9000 held for this session
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 12000, 9000))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(3000), int64(0), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallet_transactions")).
		WithArgs(TxFailed, "escrow hold settled", 7, "session:5", TxSessionReserve, TxPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(7, int64(-9000), TxSessionPayment, TxCompleted, "session:5", "session payment", int64(3000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	// psychologist wallet credited with earnings
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(30).
		WillReturnRows(walletRows(8, 30, 1000, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(9100), int64(0), 8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(8, int64(8100), TxSessionPayment, TxCompleted, "session:5", "session earnings", int64(9100)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	err := repo.SettleSession(ctx, 20, 30, 9000, 9000, 8100, "session:5")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleSession_FailsClosedWhenBalanceDropped(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 4000, 9000))
	mock.ExpectRollback()

	err := repo.SettleSession(context.Background(), 20, 30, 9000, 9000, 8100, "session:6")
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdraw_CreatesPendingTransaction(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(30).
		WillReturnRows(walletRows(8, 30, 5000, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(0), int64(0), 8).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(8, int64(-5000), TxWithdrawal, TxPending, "withdrawal:9", "approved payout", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	txID, err := repo.Withdraw(ctx, 30, 5000, "withdrawal:9", "approved payout")
	require.NoError(t, err)
	require.Equal(t, 11, txID)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(30).
		WillReturnRows(walletRows(8, 30, 5000, 2000))
	mock.ExpectRollback()

	_, err := repo.Withdraw(context.Background(), 30, 5000, "withdrawal:9", "approved payout")
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestCompleteTransaction_OnlyFlipsPending(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallet_transactions SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(TxCompleted, 11, TxPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CompleteTransaction(context.Background(), 11))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallet_transactions SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(TxCompleted, 11, TxPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CompleteTransaction(context.Background(), 11)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestRefund_CreditsWalletWithReason(t *testing.T) {
	repo, mock, closeFn := setupWalletMock(t)
	defer closeFn()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(20).
		WillReturnRows(walletRows(7, 20, 1000, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(10000), int64(0), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO wallet_transactions")).
		WithArgs(7, int64(9000), TxRefund, TxCompleted, "dispute:2", "refund: dispute resolved in patient favour", int64(10000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectCommit()

	err := repo.Refund(ctx, 20, 9000, "dispute:2", "dispute resolved in patient favour")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
