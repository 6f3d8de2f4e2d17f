package withdrawal

import "context"

type Repository interface {
	Create(ctx context.Context, userID int, amountCents int64, payoutMethod string) (*Withdrawal, error)
	GetByID(ctx context.Context, id int) (*Withdrawal, error)
	Approve(ctx context.Context, id, adminID int) (*Withdrawal, error)
	MarkRejected(ctx context.Context, id, adminID int, reason string) error
	MarkPaid(ctx context.Context, id int, paymentProof string) error
	ListForUser(ctx context.Context, userID int) ([]Withdrawal, error)
	ListAll(ctx context.Context, status string) ([]Withdrawal, error)
}
