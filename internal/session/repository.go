package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStatusConflict  = errors.New("session not in expected status")
)

const sessionColumns = `id, psychologist_id, patient_id, service_option_id, type, status, topic, scheduled_at, duration_minutes, price_cents, max_participants, started_at, ended_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Session) (*Session, error) {
	query := `
		INSERT INTO sessions (psychologist_id, patient_id, service_option_id, type, status, topic, scheduled_at, duration_minutes, price_cents, max_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + sessionColumns

	var created Session
	err := r.db.GetContext(ctx, &created, query,
		s.PsychologistID, s.PatientID, s.ServiceOptionID, s.Type, s.Status, s.Topic,
		s.ScheduledAt, s.DurationMinutes, s.PriceCents, s.MaxParticipants)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
	`

	var s Session
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// UpdateStatus moves a session from one status to another. The guard on
// the previous status makes concurrent transitions lose cleanly instead
// of overwriting each other.
func (r *repository) UpdateStatus(ctx context.Context, id int, from, to string) error {
	query := `
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
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

func (r *repository) MarkLive(ctx context.Context, id int) error {
	query := `
		UPDATE sessions
		SET status = 'LIVE', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'SCHEDULED'
	`

	result, err := r.db.ExecContext(ctx, query, id)
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

func (r *repository) MarkCompleted(ctx context.Context, id int) (*Session, error) {
	query := `
		UPDATE sessions
		SET status = 'COMPLETED', ended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'LIVE'
		RETURNING ` + sessionColumns

	var s Session
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) AddParticipant(ctx context.Context, sessionID, patientID int, holdCents int64) (*Participant, error) {
	query := `
		INSERT INTO session_participants (session_id, patient_id, hold_cents)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, patient_id, hold_cents, settled, joined_at
	`

	var p Participant
	err := r.db.GetContext(ctx, &p, query, sessionID, patientID, holdCents)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) RemoveParticipant(ctx context.Context, sessionID, patientID int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM session_participants
		WHERE session_id = $1 AND patient_id = $2
	`, sessionID, patientID)
	return err
}

func (r *repository) ListParticipants(ctx context.Context, sessionID int) ([]Participant, error) {
	query := `
		SELECT id, session_id, patient_id, hold_cents, settled, joined_at
		FROM session_participants
		WHERE session_id = $1
		ORDER BY joined_at ASC
	`

	var participants []Participant
	err := r.db.SelectContext(ctx, &participants, query, sessionID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *repository) MarkParticipantSettled(ctx context.Context, sessionID, patientID int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE session_participants
		SET settled = TRUE
		WHERE session_id = $1 AND patient_id = $2 AND settled = FALSE
	`, sessionID, patientID)
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

func (r *repository) CountParticipants(ctx context.Context, sessionID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM session_participants
		WHERE session_id = $1
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, sessionID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) HasParticipant(ctx context.Context, sessionID, patientID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM session_participants
			WHERE session_id = $1 AND patient_id = $2
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, sessionID, patientID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) ListForPatient(ctx context.Context, patientID int) ([]Session, error) {
	query := `
		SELECT s.id, s.psychologist_id, s.patient_id, s.service_option_id, s.type, s.status, s.topic, s.scheduled_at, s.duration_minutes, s.price_cents, s.max_participants, s.started_at, s.ended_at, s.created_at, s.updated_at
		FROM sessions s
		JOIN session_participants sp ON sp.session_id = s.id
		WHERE sp.patient_id = $1
		ORDER BY s.scheduled_at DESC
	`

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, patientID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) ListForPsychologist(ctx context.Context, psychologistID int) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE psychologist_id = $1
		ORDER BY scheduled_at DESC
	`

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, psychologistID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
