package server

import (
	"testing"

	"mindwell/internal/dispute"
	"mindwell/internal/topup"
	"mindwell/internal/withdrawal"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct_TopupAmount(t *testing.T) {
	errs := ValidateStruct(topup.InitiateRequest{AmountCents: 50})

	assert.Len(t, errs, 1)
	assert.Equal(t, "AmountCents", errs[0].Field)
	assert.Equal(t, "min", errs[0].Tag)
}

func TestValidateStruct_WithdrawalRequest(t *testing.T) {
	errs := ValidateStruct(withdrawal.CreateWithdrawalRequest{
		AmountCents:  5000,
		PayoutMethod: "esewa:9800000000",
	})

	assert.Empty(t, errs)
}

func TestValidateStruct_DisputeResolution(t *testing.T) {
	errs := ValidateStruct(dispute.ResolveDisputeRequest{Resolution: "SPLIT"})

	assert.Len(t, errs, 1)
	assert.Equal(t, "oneof", errs[0].Tag)
	assert.Contains(t, errs[0].Message, "DISMISS")
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	errs := ValidateStruct(dispute.CreateDisputeRequest{})

	assert.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, "required", e.Tag)
	}
}
