package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchConfidence ranks an auto-suggested pairing. Exact amount and date beats
// exact amount alone, which beats an amount merely within tolerance.
type MatchConfidence string

const (
	MatchExact           MatchConfidence = "EXACT"
	MatchAmountOnly      MatchConfidence = "AMOUNT_ONLY"
	MatchWithinTolerance MatchConfidence = "WITHIN_TOLERANCE"
)

// Rank gives a sortable weight, higher is better.
func (c MatchConfidence) Rank() int {
	switch c {
	case MatchExact:
		return 3
	case MatchAmountOnly:
		return 2
	case MatchWithinTolerance:
		return 1
	}
	return 0
}

// MatchCandidate is one suggested pairing between an unmatched bank
// transaction and an unmatched payment.
type MatchCandidate struct {
	BankTransaction BankTransaction `json:"bankTransaction"`
	Payment         Payment         `json:"payment"`
	Confidence      MatchConfidence `json:"confidence"`
	AmountDelta     decimal.Decimal `json:"amountDelta"`
	DateDeltaDays   int             `json:"dateDeltaDays"`
}

// ClearableItemType is the closed set of item kinds the clearing ledger
// accepts. Unrecognized tags are rejected at the boundary rather than
// silently mismapped.
type ClearableItemType string

const (
	ClearablePayment ClearableItemType = "PAYMENT"
	ClearableBankTxn ClearableItemType = "BANK_TXN"
)

// ParseClearableItemType validates an incoming item-type tag.
func ParseClearableItemType(s string) (ClearableItemType, error) {
	switch ClearableItemType(s) {
	case ClearablePayment, ClearableBankTxn:
		return ClearableItemType(s), nil
	}
	return "", fmt.Errorf("unknown clearable item type %q", s)
}

// ClearableItem is a payment or bank transaction eligible for clearing within
// one reconciliation session, annotated with its current cleared state.
type ClearableItem struct {
	ItemID      string            `json:"itemID"`
	ItemType    ClearableItemType `json:"itemType"`
	Date        time.Time         `json:"date"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Direction   FlowDirection     `json:"direction"`
	IsCleared   bool              `json:"isCleared"`
}

// ReconciliationGap is the difference between the statement balance and the
// book balance expected from the cleared items.
type ReconciliationGap struct {
	ExpectedBalance decimal.Decimal `json:"expectedBalance"`
	Gap             decimal.Decimal `json:"gap"`
}

// BulkMatchError reports one failed pair from a bulk match call.
type BulkMatchError struct {
	Index             int    `json:"index"`
	PaymentID         string `json:"paymentID"`
	BankTransactionID string `json:"bankTransactionID"`
	Reason            string `json:"reason"`
}

// BulkMatchResult aggregates a bulk match: per-pair failures are collected,
// not treated as a call-wide rollback.
type BulkMatchResult struct {
	Matched int              `json:"matched"`
	Errors  []BulkMatchError `json:"errors"`
}

// AdjustmentType is the closed set of reconciliation adjustments.
type AdjustmentType string

const (
	AdjustmentBankFee  AdjustmentType = "BANK_FEE"
	AdjustmentInterest AdjustmentType = "INTEREST_EARNED"
)

// ParseAdjustmentType validates an incoming adjustment-type tag.
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	switch AdjustmentType(s) {
	case AdjustmentBankFee, AdjustmentInterest:
		return AdjustmentType(s), nil
	}
	return "", fmt.Errorf("unknown adjustment type %q", s)
}
