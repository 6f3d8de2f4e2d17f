package dispute

import "time"

const (
	StatusPending   = "PENDING"
	StatusDismissed = "DISMISSED"
	StatusRefunded  = "REFUNDED"
)

const (
	ResolutionDismiss = "DISMISS"
	ResolutionRefund  = "REFUND"
)

// Dispute is a patient complaint against a completed session. Resolving
// with REFUND credits the disputed amount back; the psychologist's
// earnings are not clawed back.
type Dispute struct {
	ID             int        `db:"id" json:"id"`
	SessionID      int        `db:"session_id" json:"session_id"`
	ReporterID     int        `db:"reporter_id" json:"reporter_id"`
	AmountCents    int64      `db:"amount_cents" json:"amount_cents"`
	Reason         string     `db:"reason" json:"reason"`
	Status         string     `db:"status" json:"status"`
	ResolutionNote *string    `db:"resolution_note" json:"resolution_note,omitempty"`
	ResolvedBy     *int       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

type CreateDisputeRequest struct {
	SessionID int    `json:"session_id" binding:"required"`
	Reason    string `json:"reason" binding:"required,min=10,max=2000"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=DISMISS REFUND"`
	Note       string `json:"note" binding:"max=1000"`
}
