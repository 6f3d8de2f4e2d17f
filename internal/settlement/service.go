package settlement

import (
	"context"
	"fmt"

	"mindwell/internal/demominutes"
	"mindwell/internal/logger"
	"mindwell/internal/metrics"
	"mindwell/internal/settings"
	"mindwell/internal/user"
	"mindwell/internal/wallet"
)

// Service performs the authoritative billing moment of a completed
// session: demo minutes first, then commission split, then the atomic
// ledger transfer.
type Service interface {
	Settle(ctx context.Context, patientID, psychologistID, elapsedMinutes int, perMinuteRateCents, heldCents int64, referenceID string) (*Result, error)
}

type Result struct {
	Split demominutes.Split `json:"split"`
	Quote Quote             `json:"quote"`
	// CommissionPercent is the snapshot used for this settlement.
	CommissionPercent int `json:"commission_percent"`
}

type service struct {
	walletRepo   wallet.Repository
	demoRepo     demominutes.Repository
	settingsRepo settings.Repository
	userRepo     user.Repository
}

func NewService(
	walletRepo wallet.Repository,
	demoRepo demominutes.Repository,
	settingsRepo settings.Repository,
	userRepo user.Repository,
) Service {
	return &service{
		walletRepo:   walletRepo,
		demoRepo:     demoRepo,
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
	}
}

func (s *service) Settle(ctx context.Context, patientID, psychologistID, elapsedMinutes int, perMinuteRateCents, heldCents int64, referenceID string) (*Result, error) {
	psychologist, err := s.userRepo.FindByID(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("load psychologist: %w", err)
	}

	granted, err := s.demoRepo.Consume(ctx, patientID, psychologistID, psychologist.DemoMinutes, elapsedMinutes)
	if err != nil {
		return nil, fmt.Errorf("consume demo minutes: %w", err)
	}
	split := demominutes.BillingSplit(elapsedMinutes, granted)

	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	quote := Compute(split.ChargeableMinutes, perMinuteRateCents, cfg.CommissionPercent)

	err = s.walletRepo.SettleSession(ctx, patientID, psychologistID, heldCents, quote.GrossCents, quote.ProviderEarningsCents, referenceID)
	if err != nil {
		return nil, err
	}

	if quote.GrossCents > 0 {
		metrics.RecordSettlement(quote.GrossCents, quote.PlatformFeeCents)
	}

	logger.Info("session settled",
		"reference", referenceID,
		"patient_id", patientID,
		"psychologist_id", psychologistID,
		"demo_used", split.DemoUsed,
		"chargeable_minutes", split.ChargeableMinutes,
		"gross_cents", quote.GrossCents,
		"platform_fee_cents", quote.PlatformFeeCents,
	)

	return &Result{
		Split:             split,
		Quote:             quote,
		CommissionPercent: cfg.CommissionPercent,
	}, nil
}
