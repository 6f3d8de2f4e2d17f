package user

import "time"

type User struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	// Psychologist-only billing attributes. HourlyRateCents sets the
	// default per-minute rate; DemoMinutes is the free allowance each
	// patient gets with this psychologist.
	HourlyRateCents int64      `db:"hourly_rate_cents" json:"hourly_rate_cents,omitempty"`
	DemoMinutes     int        `db:"demo_minutes" json:"demo_minutes,omitempty"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	Role            string `json:"role" binding:"omitempty,oneof=patient psychologist"`
	HourlyRateCents int64  `json:"hourly_rate_cents" binding:"omitempty,min=0"`
	DemoMinutes     int    `json:"demo_minutes" binding:"omitempty,min=0"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}
