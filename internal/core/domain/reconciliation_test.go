package domain_test

import (
	"testing"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestBankReconciliation_IsFinalized(t *testing.T) {
	tests := []struct {
		name   string
		status domain.ReconciliationStatus
		want   bool
	}{
		{name: "in progress session", status: domain.ReconciliationInProgress, want: false},
		{name: "finalized session", status: domain.ReconciliationFinalized, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.BankReconciliation{Status: tt.status}
			assert.Equal(t, tt.want, r.IsFinalized())
		})
	}
}

func TestBankReconciliation_ClearedSets(t *testing.T) {
	r := domain.BankReconciliation{
		ClearedPaymentIDs:     []string{"pay-1", "pay-2"},
		ClearedTransactionIDs: []string{"bt-1"},
	}

	assert.True(t, r.IsPaymentCleared("pay-1"))
	assert.True(t, r.IsPaymentCleared("pay-2"))
	assert.False(t, r.IsPaymentCleared("pay-3"))
	assert.False(t, r.IsPaymentCleared("bt-1"), "transaction IDs should not match the payment set")

	assert.True(t, r.IsTransactionCleared("bt-1"))
	assert.False(t, r.IsTransactionCleared("pay-1"))
}

func TestBankTransaction_IsMatched(t *testing.T) {
	paymentID := "pay-1"

	unmatched := domain.BankTransaction{}
	assert.False(t, unmatched.IsMatched())

	matched := domain.BankTransaction{MatchedPaymentID: &paymentID}
	assert.True(t, matched.IsMatched())
}

func TestParseClearableItemType(t *testing.T) {
	got, err := domain.ParseClearableItemType("PAYMENT")
	assert.NoError(t, err)
	assert.Equal(t, domain.ClearablePayment, got)

	got, err = domain.ParseClearableItemType("BANK_TXN")
	assert.NoError(t, err)
	assert.Equal(t, domain.ClearableBankTxn, got)

	_, err = domain.ParseClearableItemType("payment")
	assert.Error(t, err, "item type tags are case sensitive")

	_, err = domain.ParseClearableItemType("INVOICE")
	assert.Error(t, err)
}

func TestParseAdjustmentType(t *testing.T) {
	got, err := domain.ParseAdjustmentType("BANK_FEE")
	assert.NoError(t, err)
	assert.Equal(t, domain.AdjustmentBankFee, got)

	got, err = domain.ParseAdjustmentType("INTEREST_EARNED")
	assert.NoError(t, err)
	assert.Equal(t, domain.AdjustmentInterest, got)

	_, err = domain.ParseAdjustmentType("WRITE_OFF")
	assert.Error(t, err)
}

func TestMatchConfidence_Rank(t *testing.T) {
	assert.Greater(t, domain.MatchExact.Rank(), domain.MatchAmountOnly.Rank())
	assert.Greater(t, domain.MatchAmountOnly.Rank(), domain.MatchWithinTolerance.Rank())
	assert.Equal(t, 0, domain.MatchConfidence("").Rank())
}
