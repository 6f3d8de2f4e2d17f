package demominutes

import "context"

type Repository interface {
	Remaining(ctx context.Context, patientID, psychologistID, allowance int) (int, error)
	Consume(ctx context.Context, patientID, psychologistID, allowance, requested int) (int, error)
	Reset(ctx context.Context, patientID, psychologistID int) error
}
