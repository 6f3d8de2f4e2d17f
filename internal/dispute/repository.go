package dispute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mindwell/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrDisputeNotFound = errors.New("dispute not found")
	ErrStatusConflict  = errors.New("dispute not in expected status")
)

const disputeColumns = `id, session_id, reporter_id, amount_cents, reason, status, resolution_note, resolved_by, resolved_at, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Create(ctx context.Context, sessionID, reporterID int, amountCents int64, reason string) (*Dispute, error) {
	query := `
		INSERT INTO disputes (session_id, reporter_id, amount_cents, reason, status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		RETURNING ` + disputeColumns

	var d Dispute
	err := r.db.GetContext(ctx, &d, query, sessionID, reporterID, amountCents, reason)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE id = $1
	`

	var d Dispute
	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) Exists(ctx context.Context, sessionID, reporterID int) (bool, error) {
	return db.Exists(ctx, r.db, `
		SELECT EXISTS(
			SELECT 1 FROM disputes
			WHERE session_id = $1 AND reporter_id = $2
		)
	`, sessionID, reporterID)
}

func (r *repository) MarkResolved(ctx context.Context, id, adminID int, status, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, id, status, note, adminID)
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

// MarkRefunded flips the dispute to REFUNDED and credits the reporter's
// wallet in a single transaction. Either both commit or neither does, so
// a dispute can never end up REFUNDED with the money still missing, and
// a lost status race never credits at all.
func (r *repository) MarkRefunded(ctx context.Context, id, adminID int, note string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var reporterID int
	var amountCents int64
	err = tx.QueryRowxContext(ctx, `
		UPDATE disputes
		SET status = 'REFUNDED', resolution_note = $2, resolved_by = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING reporter_id, amount_cents
	`, id, note, adminID).Scan(&reporterID, &amountCents)
	if errors.Is(err, sql.ErrNoRows) {
		exists, exErr := db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM disputes WHERE id = $1)`, id)
		if exErr == nil && !exists {
			return ErrDisputeNotFound
		}
		return ErrStatusConflict
	}
	if err != nil {
		return err
	}

	var walletID int
	var balance int64
	err = tx.QueryRowxContext(ctx, `
		SELECT id, balance_cents
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, reporterID).Scan(&walletID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO wallets (user_id)
			VALUES ($1)
			RETURNING id, balance_cents
		`, reporterID).Scan(&walletID, &balance)
	}
	if err != nil {
		return err
	}

	balance += amountCents
	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance_cents = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (wallet_id, amount_cents, type, status, reference_id, description, balance_after)
		VALUES ($1, $2, 'REFUND', 'COMPLETED', $3, 'session dispute resolved in patient''s favor', $4)
	`, walletID, amountCents, fmt.Sprintf("dispute:%d", id), balance); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) ListForUser(ctx context.Context, reporterID int) ([]Dispute, error) {
	var disputes []Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE reporter_id = $1
		ORDER BY created_at DESC
	`, reporterID)
	if err != nil {
		return nil, err
	}

	return disputes, nil
}

func (r *repository) ListAll(ctx context.Context, status string) ([]Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
	`
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	var disputes []Dispute
	err := r.db.SelectContext(ctx, &disputes, query, args...)
	if err != nil {
		return nil, err
	}

	return disputes, nil
}
