package settlement

import "github.com/shopspring/decimal"

// Quote is the money split for one settled participant.
type Quote struct {
	GrossCents            int64 `json:"gross_cents"`
	PlatformFeeCents      int64 `json:"platform_fee_cents"`
	ProviderEarningsCents int64 `json:"provider_earnings_cents"`
}

// Compute splits chargeable minutes into gross, platform fee and provider
// earnings. Earnings are defined as gross minus fee, so the three always
// reconcile to the cent.
func Compute(chargeableMinutes int, perMinuteRateCents int64, commissionPercent int) Quote {
	if chargeableMinutes <= 0 || perMinuteRateCents <= 0 {
		return Quote{}
	}

	gross := int64(chargeableMinutes) * perMinuteRateCents

	fee := decimal.NewFromInt(gross).
		Mul(decimal.NewFromInt(int64(commissionPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	return Quote{
		GrossCents:            gross,
		PlatformFeeCents:      fee,
		ProviderEarningsCents: gross - fee,
	}
}

// PerMinuteRate derives the billing rate: a session-level price fixed by a
// service option wins, otherwise the psychologist's hourly rate divided
// by 60.
func PerMinuteRate(priceCents int64, durationMinutes int, hourlyRateCents int64) int64 {
	if priceCents > 0 && durationMinutes > 0 {
		return decimal.NewFromInt(priceCents).
			Div(decimal.NewFromInt(int64(durationMinutes))).
			Round(0).
			IntPart()
	}
	return decimal.NewFromInt(hourlyRateCents).
		Div(decimal.NewFromInt(60)).
		Round(0).
		IntPart()
}
