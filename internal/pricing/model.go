package pricing

import "time"

// ServiceOption is a bookable offering published by a psychologist. Its
// price and duration fix the per-minute billing rate for sessions booked
// against it; sessions without an option fall back to the hourly rate.
type ServiceOption struct {
	ID              int       `db:"id" json:"id"`
	PsychologistID  int       `db:"psychologist_id" json:"psychologist_id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CreateOptionRequest struct {
	Title           string `json:"title" binding:"required,min=2,max=120"`
	Description     string `json:"description" binding:"max=1000"`
	PriceCents      int64  `json:"price_cents" binding:"required,min=1"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=15,max=240"`
}
