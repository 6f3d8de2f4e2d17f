package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mindwell/internal/db"
	"mindwell/internal/wallet"

	"github.com/jmoiron/sqlx"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrStatusConflict     = errors.New("withdrawal not in expected status")
)

const withdrawalColumns = `id, user_id, amount_cents, payout_method, status, payment_status, reject_reason, wallet_transaction_id, payment_proof, reviewed_by, reviewed_at, paid_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func referenceID(withdrawalID int) string {
	return fmt.Sprintf("withdrawal:%d", withdrawalID)
}

func (r *repository) Create(ctx context.Context, userID int, amountCents int64, payoutMethod string) (*Withdrawal, error) {
	query := `
		INSERT INTO withdrawal_requests (user_id, amount_cents, payout_method, status, payment_status)
		VALUES ($1, $2, $3, 'PENDING', 'PENDING')
		RETURNING ` + withdrawalColumns

	var w Withdrawal
	err := r.db.GetContext(ctx, &w, query, userID, amountCents, payoutMethod)
	if err != nil {
		return nil, err
	}

	return &w, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = $1
	`

	var w Withdrawal
	err := r.db.GetContext(ctx, &w, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// Approve debits the wallet and flips the request to APPROVED in a
// single transaction. The ledger row is written PENDING and completes
// only when the payout is confirmed. A request that lost the review
// race returns ErrStatusConflict with no wallet movement at all.
func (r *repository) Approve(ctx context.Context, id, adminID int) (*Withdrawal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var userID int
	var amountCents int64
	err = tx.QueryRowxContext(ctx, `
		SELECT user_id, amount_cents
		FROM withdrawal_requests
		WHERE id = $1 AND status = 'PENDING'
		FOR UPDATE
	`, id).Scan(&userID, &amountCents)
	if errors.Is(err, sql.ErrNoRows) {
		exists, exErr := db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE id = $1)`, id)
		if exErr == nil && !exists {
			return nil, ErrWithdrawalNotFound
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, err
	}

	var walletID int
	var balance, held int64
	err = tx.QueryRowxContext(ctx, `
		SELECT id, balance_cents, held_cents
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&walletID, &balance, &held)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	if balance-held < amountCents {
		return nil, wallet.ErrInsufficientFunds
	}

	balance -= amountCents
	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance_cents = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID); err != nil {
		return nil, err
	}

	var txID int
	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after)
		VALUES ($1, $2, $3, $4, $5, 'withdrawal payout', $6)
		RETURNING id
	`, walletID, -amountCents, wallet.TxWithdrawal, wallet.TxPending, referenceID(id), balance).Scan(&txID); err != nil {
		return nil, err
	}

	var w Withdrawal
	if err := tx.QueryRowxContext(ctx, `
		UPDATE withdrawal_requests
		SET status = 'APPROVED', payment_status = 'PROCESSING', wallet_transaction_id = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+withdrawalColumns+`
	`, id, txID, adminID).StructScan(&w); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &w, nil
}

func (r *repository) MarkRejected(ctx context.Context, id, adminID int, reason string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'REJECTED', payment_status = 'FAILED', reject_reason = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`
	return r.guardedExec(ctx, query, id, reason, adminID)
}

func (r *repository) MarkPaid(ctx context.Context, id int, paymentProof string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'COMPLETED', payment_status = 'COMPLETED', payment_proof = $2, paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'APPROVED'
	`
	return r.guardedExec(ctx, query, id, paymentProof)
}

func (r *repository) guardedExec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

func (r *repository) ListForUser(ctx context.Context, userID int) ([]Withdrawal, error) {
	var withdrawals []Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

func (r *repository) ListAll(ctx context.Context, status string) ([]Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
	`
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var withdrawals []Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, query, args...)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}
