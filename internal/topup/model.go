package topup

import "time"

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Topup is one external payment attempt. The gateway calls back with a
// signed payload; reconciliation flips PENDING to COMPLETED exactly once
// and credits the wallet in the same transaction.
type Topup struct {
	ID          int       `db:"id" json:"id"`
	OrderID     string    `db:"order_id" json:"order_id"`
	UserID      int       `db:"user_id" json:"user_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Status      string    `db:"status" json:"status"`
	// RefID is the gateway's own transaction code, recorded at
	// reconciliation for support lookups against eSewa statements.
	RefID     *string   `db:"ref_id" json:"ref_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type InitiateRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,min=100"`
}

// InitiateResponse carries the signed form the client posts to the
// gateway's checkout page.
type InitiateResponse struct {
	OrderID    string            `json:"order_id"`
	GatewayURL string            `json:"gateway_url"`
	Fields     map[string]string `json:"fields"`
}

type VerifyRequest struct {
	// Data is the base64 payload the gateway appends to the return URL.
	Data string `json:"data" binding:"required"`
}
