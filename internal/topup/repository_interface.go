package topup

import "context"

type Repository interface {
	Create(ctx context.Context, orderID string, userID int, amountCents int64) (*Topup, error)
	GetByOrderID(ctx context.Context, orderID string) (*Topup, error)
	CompleteAndCredit(ctx context.Context, orderID, refID string) (*Topup, error)
	Fail(ctx context.Context, orderID string) error
	ListForUser(ctx context.Context, userID, limit, offset int) ([]Topup, error)
}
