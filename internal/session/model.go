package session

import (
	"time"

	"mindwell/internal/settlement"
)

const (
	StatusPending   = "PENDING"
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

const (
	TypeOneOnOne = "ONE_ON_ONE"
	TypeGroup    = "GROUP"
)

type Session struct {
	ID             int    `db:"id" json:"id"`
	PsychologistID int    `db:"psychologist_id" json:"psychologist_id"`
	// PatientID is set for one-on-one sessions; group sessions track
	// attendees in session_participants only.
	PatientID       *int       `db:"patient_id" json:"patient_id,omitempty"`
	ServiceOptionID *int       `db:"service_option_id" json:"service_option_id,omitempty"`
	Type            string     `db:"type" json:"type"`
	Status          string     `db:"status" json:"status"`
	Topic           string     `db:"topic" json:"topic"`
	ScheduledAt     time.Time  `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64      `db:"price_cents" json:"price_cents"`
	MaxParticipants int        `db:"max_participants" json:"max_participants"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type Participant struct {
	ID        int   `db:"id" json:"id"`
	SessionID int   `db:"session_id" json:"session_id"`
	PatientID int   `db:"patient_id" json:"patient_id"`
	HoldCents int64 `db:"hold_cents" json:"hold_cents"`
	// Settled flips once this participant's hold has been converted into
	// a charge and payout. Unsettled participants of a completed session
	// still have money in escrow.
	Settled  bool      `db:"settled" json:"settled"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

type SessionDetail struct {
	Session      *Session      `json:"session"`
	Participants []Participant `json:"participants"`
}

type RequestSessionRequest struct {
	PsychologistID  int    `json:"psychologist_id" binding:"required"`
	ServiceOptionID *int   `json:"service_option_id"`
	ScheduledAt     string `json:"scheduled_at" binding:"required"`
	// DurationMinutes is used when no service option is given.
	DurationMinutes int `json:"duration_minutes" binding:"omitempty,min=15,max=240"`
}

type RequestSessionResponse struct {
	Session   *Session `json:"session"`
	HoldCents int64    `json:"hold_cents" example:"12000"`
}

type CreateGroupRequest struct {
	Topic           string `json:"topic" binding:"required,min=2,max=200"`
	ScheduledAt     string `json:"scheduled_at" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=15,max=240"`
	PriceCents      int64  `json:"price_cents" binding:"required,min=1"`
	MaxParticipants int    `json:"max_participants" binding:"required,min=2,max=50"`
}

type ParticipantSettlement struct {
	PatientID int                `json:"patient_id"`
	Settled   bool               `json:"settled"`
	Result    *settlement.Result `json:"result,omitempty"`
}

type CompleteSessionResponse struct {
	Session     *Session                `json:"session"`
	Settlements []ParticipantSettlement `json:"settlements"`
}
