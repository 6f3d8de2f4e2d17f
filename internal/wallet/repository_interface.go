package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	Credit(ctx context.Context, userID int, amountCents int64, txType TxType, referenceID, description string) error
	Charge(ctx context.Context, userID int, amountCents int64, txType TxType, referenceID, description string) error
	Reserve(ctx context.Context, userID int, amountCents int64, referenceID string) error
	Release(ctx context.Context, userID int, amountCents int64, referenceID string) error
	SettleSession(ctx context.Context, patientID, psychologistID int, heldCents, grossCents, earningsCents int64, referenceID string) error
	Withdraw(ctx context.Context, userID int, amountCents int64, referenceID, description string) (int, error)
	CompleteTransaction(ctx context.Context, transactionID int) error
	Refund(ctx context.Context, userID int, amountCents int64, referenceID, reason string) error
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
