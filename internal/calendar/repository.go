package calendar

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateEvent(ctx context.Context, userID int, title string, startsAt time.Time, durationMinutes int, referenceID string) (*Event, error)
	ListForUser(ctx context.Context, userID int, from, to time.Time) ([]Event, error)
	DeleteByReference(ctx context.Context, referenceID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, userID int, title string, startsAt time.Time, durationMinutes int, referenceID string) (*Event, error) {
	query := `
		INSERT INTO calendar_events (user_id, title, starts_at, ends_at, reference_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, starts_at, ends_at, reference_id, created_at
	`

	endsAt := startsAt.Add(time.Duration(durationMinutes) * time.Minute)

	var event Event
	err := r.db.GetContext(ctx, &event, query, userID, title, startsAt, endsAt, referenceID)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int, from, to time.Time) ([]Event, error) {
	query := `
		SELECT id, user_id, title, starts_at, ends_at, reference_id, created_at
		FROM calendar_events
		WHERE user_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at ASC
	`

	var events []Event
	err := r.db.SelectContext(ctx, &events, query, userID, from, to)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *repository) DeleteByReference(ctx context.Context, referenceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE reference_id = $1`, referenceID)
	return err
}
