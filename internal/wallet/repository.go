package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrTransactionNotFound = errors.New("transaction not found")
)

const walletColumns = `id, user_id, balance_cents, held_cents, currency, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING `+walletColumns,
		userID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// lockWallet loads the wallet row FOR UPDATE inside tx, creating it when
// absent. Every mutating operation serializes on this row lock.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	var w Wallet
	err := tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(&w)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING `+walletColumns,
		userID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func updateWallet(ctx context.Context, tx *sqlx.Tx, w *Wallet) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, held_cents = $2, updated_at = NOW()
		 WHERE id = $3`,
		w.BalanceCents, w.HeldCents, w.ID,
	)
	return err
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, walletID int, amountCents int64, txType TxType, status TxStatus, referenceID, description string, balanceAfter int64) (int, error) {
	var id int
	var ref *string
	if referenceID != "" {
		ref = &referenceID
	}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		walletID, amountCents, txType, status, ref, description, balanceAfter,
	).Scan(&id)
	return id, err
}

func (r *repository) Credit(ctx context.Context, userID int, amountCents int64, txType TxType, referenceID, description string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	w.BalanceCents += amountCents
	if err := updateWallet(ctx, tx, w); err != nil {
		return err
	}

	if _, err := insertTransaction(ctx, tx, w.ID, amountCents, txType, TxCompleted, referenceID, description, w.BalanceCents); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) Charge(ctx context.Context, userID int, amountCents int64, txType TxType, referenceID, description string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.BalanceCents < amountCents {
		return ErrInsufficientFunds
	}

	w.BalanceCents -= amountCents
	if err := updateWallet(ctx, tx, w); err != nil {
		return err
	}

	if _, err := insertTransaction(ctx, tx, w.ID, -amountCents, txType, TxCompleted, referenceID, description, w.BalanceCents); err != nil {
		return err
	}

	return tx.Commit()
}

// Reserve places an escrow hold for a pending booking. No funds move: the
// hold only reduces the spendable amount until the session settles or is
// cancelled. A PENDING SESSION_RESERVE row records the hold.
func (r *repository) Reserve(ctx context.Context, userID int, amountCents int64, referenceID string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.AvailableCents() < amountCents {
		return ErrInsufficientFunds
	}

	w.HeldCents += amountCents
	if err := updateWallet(ctx, tx, w); err != nil {
		return err
	}

	if _, err := insertTransaction(ctx, tx, w.ID, -amountCents, TxSessionReserve, TxPending, referenceID, "escrow hold for session booking", w.BalanceCents); err != nil {
		return err
	}

	return tx.Commit()
}

// Release drops an escrow hold without moving funds, resolving the pending
// reserve row for the same reference.
func (r *repository) Release(ctx context.Context, userID int, amountCents int64, referenceID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	w.HeldCents -= amountCents
	if w.HeldCents < 0 {
		w.HeldCents = 0
	}
	if err := updateWallet(ctx, tx, w); err != nil {
		return err
	}

	if err := resolveReserve(ctx, tx, w.ID, referenceID, "escrow hold released"); err != nil {
		return err
	}

	return tx.Commit()
}

func resolveReserve(ctx context.Context, tx *sqlx.Tx, walletID int, referenceID, description string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE wallet_transactions
		 SET status = $1, description = $2
		 WHERE wallet_id = $3 AND reference_id = $4 AND type = $5 AND status = $6`,
		TxFailed, description, walletID, referenceID, TxSessionReserve, TxPending,
	)
	return err
}

// SettleSession performs the completion-time transfer in one atomic unit:
// the patient's hold is released and gross is charged, the psychologist is
// credited their earnings. The platform fee (gross - earnings) stays on the
// platform implicitly.
func (r *repository) SettleSession(ctx context.Context, patientID, psychologistID int, heldCents, grossCents, earningsCents int64, referenceID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pw, err := lockWallet(ctx, tx, patientID)
	if err != nil {
		return err
	}

	pw.HeldCents -= heldCents
	if pw.HeldCents < 0 {
		pw.HeldCents = 0
	}

	if grossCents > 0 {
		if pw.BalanceCents < grossCents {
			return ErrInsufficientFunds
		}
		pw.BalanceCents -= grossCents
	}

	if err := updateWallet(ctx, tx, pw); err != nil {
		return err
	}

	if err := resolveReserve(ctx, tx, pw.ID, referenceID, "escrow hold settled"); err != nil {
		return err
	}

	if grossCents > 0 {
		if _, err := insertTransaction(ctx, tx, pw.ID, -grossCents, TxSessionPayment, TxCompleted, referenceID, "session payment", pw.BalanceCents); err != nil {
			return err
		}
	}

	if earningsCents > 0 {
		ww, err := lockWallet(ctx, tx, psychologistID)
		if err != nil {
			return err
		}
		ww.BalanceCents += earningsCents
		if err := updateWallet(ctx, tx, ww); err != nil {
			return err
		}
		if _, err := insertTransaction(ctx, tx, ww.ID, earningsCents, TxSessionPayment, TxCompleted, referenceID, "session earnings", ww.BalanceCents); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Withdraw decrements the balance and records a PENDING WITHDRAWAL row.
// The row completes when the external payout is confirmed. Returns the
// new transaction id so the withdrawal request can link it.
func (r *repository) Withdraw(ctx context.Context, userID int, amountCents int64, referenceID, description string) (int, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if w.AvailableCents() < amountCents {
		return 0, ErrInsufficientFunds
	}

	w.BalanceCents -= amountCents
	if err := updateWallet(ctx, tx, w); err != nil {
		return 0, err
	}

	txID, err := insertTransaction(ctx, tx, w.ID, -amountCents, TxWithdrawal, TxPending, referenceID, description, w.BalanceCents)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return txID, nil
}

func (r *repository) CompleteTransaction(ctx context.Context, transactionID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wallet_transactions
		 SET status = $1
		 WHERE id = $2 AND status = $3`,
		TxCompleted, transactionID, TxPending,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *repository) Refund(ctx context.Context, userID int, amountCents int64, referenceID, reason string) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	w.BalanceCents += amountCents
	if err := updateWallet(ctx, tx, w); err != nil {
		return err
	}

	desc := "refund"
	if reason != "" {
		desc = fmt.Sprintf("refund: %s", reason)
	}
	if _, err := insertTransaction(ctx, tx, w.ID, amountCents, TxRefund, TxCompleted, referenceID, desc, w.BalanceCents); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	var txs []Transaction
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, amount_cents, type, status, reference_id, description, balance_after, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
