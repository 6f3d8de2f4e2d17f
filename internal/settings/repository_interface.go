package settings

import "context"

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	UpdateCommission(ctx context.Context, percent, adminID int) (*Settings, error)
}
