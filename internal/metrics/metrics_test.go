package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/sessions/request", "201", 0.12)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/sessions/request", "201"))
	assert.Equal(t, float64(1), count)
}

func TestRecordSessionTransition(t *testing.T) {
	SessionTransitionsTotal.Reset()

	RecordSessionTransition("SCHEDULED")
	RecordSessionTransition("SCHEDULED")
	RecordSessionTransition("CANCELLED")

	assert.Equal(t, float64(2), testutil.ToFloat64(SessionTransitionsTotal.WithLabelValues("SCHEDULED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SessionTransitionsTotal.WithLabelValues("CANCELLED")))
}

func TestRecordSettlement(t *testing.T) {
	before := testutil.ToFloat64(SettledGrossCents)

	RecordSettlement(9000, 900)

	assert.Equal(t, before+9000, testutil.ToFloat64(SettledGrossCents))
}

func TestRecordTopup(t *testing.T) {
	TopupsTotal.Reset()

	RecordTopup("completed")
	RecordTopup("duplicate")
	RecordTopup("completed")

	assert.Equal(t, float64(2), testutil.ToFloat64(TopupsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(TopupsTotal.WithLabelValues("duplicate")))
}

func TestRecordWithdrawalAndDispute(t *testing.T) {
	WithdrawalsTotal.Reset()
	DisputesTotal.Reset()

	RecordWithdrawal("approved")
	RecordDispute("refunded")

	assert.Equal(t, float64(1), testutil.ToFloat64(WithdrawalsTotal.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(DisputesTotal.WithLabelValues("refunded")))
}
