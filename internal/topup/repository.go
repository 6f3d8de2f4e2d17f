package topup

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrTopupNotFound    = errors.New("topup not found")
	ErrAlreadyCompleted = errors.New("topup already completed")
)

const topupColumns = `id, order_id, user_id, amount_cents, status, ref_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, orderID string, userID int, amountCents int64) (*Topup, error) {
	query := `
		INSERT INTO wallet_topups (order_id, user_id, amount_cents, status)
		VALUES ($1, $2, $3, 'PENDING')
		RETURNING ` + topupColumns

	var t Topup
	err := r.db.GetContext(ctx, &t, query, orderID, userID, amountCents)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Topup, error) {
	query := `
		SELECT ` + topupColumns + `
		FROM wallet_topups
		WHERE order_id = $1
	`

	var t Topup
	err := r.db.GetContext(ctx, &t, query, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTopupNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CompleteAndCredit flips the topup from PENDING to COMPLETED, records the
// gateway's transaction code and credits the wallet in a single transaction.
// The status guard on the UPDATE makes replayed gateway callbacks lose the
// race: a second caller matches zero rows and gets ErrAlreadyCompleted
// instead of a double credit.
func (r *repository) CompleteAndCredit(ctx context.Context, orderID, refID string) (*Topup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var t Topup
	err = tx.QueryRowxContext(ctx,
		`UPDATE wallet_topups
		 SET status = 'COMPLETED', ref_id = $2, updated_at = NOW()
		 WHERE order_id = $1 AND status = 'PENDING'
		 RETURNING `+topupColumns,
		orderID, refID,
	).StructScan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		var status string
		if err := tx.QueryRowxContext(ctx,
			`SELECT status FROM wallet_topups WHERE order_id = $1`, orderID,
		).Scan(&status); err != nil {
			return nil, ErrTopupNotFound
		}
		if status == StatusCompleted {
			return nil, ErrAlreadyCompleted
		}
		return nil, ErrTopupNotFound
	}
	if err != nil {
		return nil, err
	}

	var walletID int
	var balance, held int64
	err = tx.QueryRowxContext(ctx,
		`SELECT id, balance_cents, held_cents
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		t.UserID,
	).Scan(&walletID, &balance, &held)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO wallets (user_id)
			 VALUES ($1)
			 RETURNING id, balance_cents, held_cents`,
			t.UserID,
		).Scan(&walletID, &balance, &held)
	}
	if err != nil {
		return nil, err
	}

	balance += t.AmountCents
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		balance, walletID,
	); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after)
		 VALUES ($1, $2, 'DEPOSIT', 'COMPLETED', $3, 'wallet top-up', $4)`,
		walletID, t.AmountCents, t.OrderID, balance,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) Fail(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE wallet_topups
		 SET status = 'FAILED', updated_at = NOW()
		 WHERE order_id = $1 AND status = 'PENDING'`,
		orderID,
	)
	return err
}

func (r *repository) ListForUser(ctx context.Context, userID, limit, offset int) ([]Topup, error) {
	if limit <= 0 {
		limit = 50
	}

	var topups []Topup
	err := r.db.SelectContext(ctx, &topups, `
		SELECT `+topupColumns+`
		FROM wallet_topups
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return topups, nil
}
