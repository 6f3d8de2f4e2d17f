package demominutes

import "time"

// Usage tracks the free minutes a patient has consumed with one
// psychologist. MinutesUsed only grows, capped by the psychologist's
// allowance, except for an explicit admin reset.
type Usage struct {
	ID             int       `db:"id" json:"id"`
	PatientID      int       `db:"patient_id" json:"patient_id"`
	PsychologistID int       `db:"psychologist_id" json:"psychologist_id"`
	MinutesUsed    int       `db:"minutes_used" json:"minutes_used"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type RemainingResponse struct {
	PsychologistID   int `json:"psychologist_id"`
	AllowanceMinutes int `json:"allowance_minutes"`
	RemainingMinutes int `json:"remaining_minutes"`
}

type ResetRequest struct {
	PatientID      int `json:"patient_id" binding:"required"`
	PsychologistID int `json:"psychologist_id" binding:"required"`
}

// Split is the billing breakdown of a session's minutes.
type Split struct {
	DemoUsed          int `json:"demo_used"`
	ChargeableMinutes int `json:"chargeable_minutes"`
}

// BillingSplit divides session minutes into the granted free portion and
// the chargeable remainder.
func BillingSplit(sessionMinutes, granted int) Split {
	if granted > sessionMinutes {
		granted = sessionMinutes
	}
	if granted < 0 {
		granted = 0
	}
	return Split{
		DemoUsed:          granted,
		ChargeableMinutes: sessionMinutes - granted,
	}
}
