package pricing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrOptionNotFound = errors.New("service option not found")

const optionColumns = `id, psychologist_id, title, description, price_cents, duration_minutes, is_active, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, psychologistID int, title, description string, priceCents int64, durationMinutes int) (*ServiceOption, error) {
	query := `
		INSERT INTO service_options (psychologist_id, title, description, price_cents, duration_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING ` + optionColumns

	var opt ServiceOption
	err := r.db.GetContext(ctx, &opt, query, psychologistID, title, description, priceCents, durationMinutes)
	if err != nil {
		return nil, err
	}

	return &opt, nil
}

func (r *repository) ListByPsychologist(ctx context.Context, psychologistID int, onlyActive bool) ([]ServiceOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM service_options
		WHERE psychologist_id = $1
	`
	if onlyActive {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	var opts []ServiceOption
	err := r.db.SelectContext(ctx, &opts, query, psychologistID)
	if err != nil {
		return nil, err
	}

	return opts, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*ServiceOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM service_options
		WHERE id = $1
	`

	var opt ServiceOption
	err := r.db.GetContext(ctx, &opt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &opt, nil
}

func (r *repository) Deactivate(ctx context.Context, id, psychologistID int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE service_options
		SET is_active = FALSE
		WHERE id = $1 AND psychologist_id = $2
	`, id, psychologistID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOptionNotFound
	}

	return nil
}
