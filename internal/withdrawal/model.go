package withdrawal

import "time"

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCompleted = "COMPLETED"
)

// PaymentStatus tracks the money side of a request independently of the
// review decision: PROCESSING from the moment the wallet is debited,
// COMPLETED once the payout is confirmed, FAILED when the request is
// rejected.
const (
	PaymentPending    = "PENDING"
	PaymentProcessing = "PROCESSING"
	PaymentCompleted  = "COMPLETED"
	PaymentFailed     = "FAILED"
)

// Withdrawal is a payout request. Funds leave the wallet only at
// approval, and the linked ledger row stays PENDING until the external
// payment is confirmed.
type Withdrawal struct {
	ID          int    `db:"id" json:"id"`
	UserID      int    `db:"user_id" json:"user_id"`
	AmountCents int64  `db:"amount_cents" json:"amount_cents"`
	// PayoutMethod is snapshotted at request time so a later profile
	// edit cannot redirect an in-flight payout.
	PayoutMethod        string     `db:"payout_method" json:"payout_method"`
	Status              string     `db:"status" json:"status"`
	PaymentStatus       string     `db:"payment_status" json:"payment_status"`
	RejectReason        *string    `db:"reject_reason" json:"reject_reason,omitempty"`
	WalletTransactionID *int       `db:"wallet_transaction_id" json:"wallet_transaction_id,omitempty"`
	PaymentProof        *string    `db:"payment_proof" json:"payment_proof,omitempty"`
	ReviewedBy          *int       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	PaidAt              *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateWithdrawalRequest struct {
	AmountCents  int64  `json:"amount_cents" binding:"required,min=100"`
	PayoutMethod string `json:"payout_method" binding:"required,min=3,max=500"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

type CompletePaymentRequest struct {
	PaymentProof string `json:"payment_proof" binding:"required,min=3,max=1000"`
}
