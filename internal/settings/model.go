package settings

import "time"

const DefaultCommissionPercent = 10

// Settings is the single mutable platform configuration row.
type Settings struct {
	ID                int       `db:"id" json:"id"`
	CommissionPercent int       `db:"commission_percent" json:"commission_percent"`
	UpdatedBy         *int      `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
