package wallet

import "time"

type TxType string

const (
	TxDeposit        TxType = "DEPOSIT"
	TxWithdrawal     TxType = "WITHDRAWAL"
	TxSessionReserve TxType = "SESSION_RESERVE"
	TxSessionPayment TxType = "SESSION_PAYMENT"
	TxRefund         TxType = "REFUND"
	TxMediaUnlock    TxType = "MEDIA_UNLOCK"
)

type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxCompleted TxStatus = "COMPLETED"
	TxFailed    TxStatus = "FAILED"
)

// Wallet is the source of truth for a user's spendable balance.
// HeldCents is the escrow portion reserved for pending session bookings;
// the spendable amount is BalanceCents - HeldCents.
type Wallet struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	HeldCents    int64     `db:"held_cents" json:"held_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (w *Wallet) AvailableCents() int64 {
	return w.BalanceCents - w.HeldCents
}

// Transaction is an immutable ledger record. Only Status may change after
// creation. Positive amounts are credits, negative are debits. The balance
// reconciliation invariant is: BalanceCents == sum of COMPLETED amounts
// plus PENDING WITHDRAWAL amounts (funds leave the wallet at approval,
// the row completes when the payout is confirmed).
type Transaction struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	AmountCents  int64     `db:"amount_cents" json:"amount_cents"`
	Type         TxType    `db:"type" json:"type"`
	Status       TxStatus  `db:"status" json:"status"`
	ReferenceID  *string   `db:"reference_id" json:"reference_id,omitempty"`
	Description  string    `db:"description" json:"description"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
