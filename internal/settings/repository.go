package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrInvalidPercent = errors.New("commission percent must be between 0 and 100")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Get returns the settings row, falling back to defaults when the row has
// never been written. Callers re-read per settlement; the value is a
// snapshot, never cached.
func (r *repository) Get(ctx context.Context) (*Settings, error) {
	s := &Settings{}
	err := r.db.GetContext(ctx, s, `
		SELECT id, commission_percent, updated_by, updated_at
		FROM system_settings
		ORDER BY id
		LIMIT 1
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Settings{CommissionPercent: DefaultCommissionPercent}, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) UpdateCommission(ctx context.Context, percent, adminID int) (*Settings, error) {
	if percent < 0 || percent > 100 {
		return nil, ErrInvalidPercent
	}

	s := &Settings{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO system_settings (id, commission_percent, updated_by)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET commission_percent = EXCLUDED.commission_percent,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING id, commission_percent, updated_by, updated_at
	`, percent, adminID).StructScan(s)
	if err != nil {
		return nil, err
	}
	return s, nil
}
