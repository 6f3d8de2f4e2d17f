package pricing

import "context"

type Repository interface {
	Create(ctx context.Context, psychologistID int, title, description string, priceCents int64, durationMinutes int) (*ServiceOption, error)
	ListByPsychologist(ctx context.Context, psychologistID int, onlyActive bool) ([]ServiceOption, error)
	GetByID(ctx context.Context, id int) (*ServiceOption, error)
	Deactivate(ctx context.Context, id, psychologistID int) error
}
