package demominutes

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Remaining(ctx context.Context, patientID, psychologistID, allowance int) (int, error) {
	var used int
	err := r.db.GetContext(ctx, &used, `
		SELECT minutes_used
		FROM demo_minutes_usage
		WHERE patient_id = $1 AND psychologist_id = $2
	`, patientID, psychologistID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			used = 0
		} else {
			return 0, err
		}
	}

	remaining := allowance - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume grants min(requested, remaining) free minutes and bumps the
// usage row by exactly that amount, never past the allowance. The row is
// locked for the duration so two concurrent sessions cannot both spend
// the same remaining minutes.
func (r *repository) Consume(ctx context.Context, patientID, psychologistID, allowance, requested int) (int, error) {
	if requested <= 0 || allowance <= 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var used int
	err = tx.QueryRowxContext(ctx, `
		SELECT minutes_used
		FROM demo_minutes_usage
		WHERE patient_id = $1 AND psychologist_id = $2
		FOR UPDATE
	`, patientID, psychologistID).Scan(&used)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO demo_minutes_usage (patient_id, psychologist_id, minutes_used)
			VALUES ($1, $2, 0)
			RETURNING minutes_used
		`, patientID, psychologistID).Scan(&used)
		if err != nil {
			return 0, err
		}
	}

	remaining := allowance - used
	if remaining <= 0 {
		return 0, tx.Commit()
	}

	granted := requested
	if granted > remaining {
		granted = remaining
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE demo_minutes_usage
		SET minutes_used = minutes_used + $1, updated_at = NOW()
		WHERE patient_id = $2 AND psychologist_id = $3
	`, granted, patientID, psychologistID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return granted, nil
}

func (r *repository) Reset(ctx context.Context, patientID, psychologistID int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE demo_minutes_usage
		SET minutes_used = 0, updated_at = NOW()
		WHERE patient_id = $1 AND psychologist_id = $2
	`, patientID, psychologistID)
	return err
}
