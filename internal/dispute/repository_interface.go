package dispute

import "context"

type Repository interface {
	Create(ctx context.Context, sessionID, reporterID int, amountCents int64, reason string) (*Dispute, error)
	GetByID(ctx context.Context, id int) (*Dispute, error)
	Exists(ctx context.Context, sessionID, reporterID int) (bool, error)
	MarkResolved(ctx context.Context, id, adminID int, status, note string) error
	MarkRefunded(ctx context.Context, id, adminID int, note string) error
	ListForUser(ctx context.Context, reporterID int) ([]Dispute, error)
	ListAll(ctx context.Context, status string) ([]Dispute, error)
}
