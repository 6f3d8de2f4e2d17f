package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name              string
		chargeableMinutes int
		perMinuteRate     int64
		commissionPercent int
		wantGross         int64
		wantFee           int64
		wantEarnings      int64
	}{
		// 120/hr with 15 demo minutes on a 60 minute session:
		// 45 chargeable at 200 cents/min, 10% commission
		{"reference scenario", 45, 200, 10, 9000, 900, 8100},
		{"zero commission", 45, 200, 0, 9000, 0, 9000},
		{"full commission", 45, 200, 100, 9000, 9000, 0},
		{"rounds fee to nearest cent", 1, 333, 10, 333, 33, 300},
		{"odd amounts still conserve", 7, 157, 13, 1099, 143, 956},
		{"no chargeable minutes", 0, 200, 10, 0, 0, 0},
		{"no rate", 45, 0, 10, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Compute(tt.chargeableMinutes, tt.perMinuteRate, tt.commissionPercent)
			assert.Equal(t, tt.wantGross, q.GrossCents)
			assert.Equal(t, tt.wantFee, q.PlatformFeeCents)
			assert.Equal(t, tt.wantEarnings, q.ProviderEarningsCents)
		})
	}
}

func TestCompute_Conservation(t *testing.T) {
	// fee + earnings must equal gross for any input
	for minutes := 1; minutes <= 90; minutes += 7 {
		for pct := 0; pct <= 100; pct += 9 {
			q := Compute(minutes, 199, pct)
			assert.Equal(t, q.GrossCents, q.PlatformFeeCents+q.ProviderEarningsCents,
				"minutes=%d pct=%d", minutes, pct)
		}
	}
}

func TestPerMinuteRate(t *testing.T) {
	t.Run("session price wins over hourly rate", func(t *testing.T) {
		assert.Equal(t, int64(150), PerMinuteRate(9000, 60, 12000))
	})

	t.Run("falls back to hourly rate", func(t *testing.T) {
		assert.Equal(t, int64(200), PerMinuteRate(0, 0, 12000))
	})

	t.Run("rounds uneven division", func(t *testing.T) {
		// 10000 / 45 = 222.22 -> 222
		assert.Equal(t, int64(222), PerMinuteRate(10000, 45, 0))
	})
}
