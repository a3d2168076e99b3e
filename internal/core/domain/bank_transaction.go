package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one imported bank-feed line. It carries at most one match
// to a payment; a matched pair must have equal, direction-consistent amounts.
type BankTransaction struct {
	BankTransactionID string          `json:"bankTransactionID"` // Primary Key (UUID)
	OrganizationID    string          `json:"organizationID"`
	BankAccountID     string          `json:"bankAccountID"`
	Amount            decimal.Decimal `json:"amount"` // Always non-negative
	Direction         FlowDirection   `json:"direction"`
	TransactionDate   time.Time       `json:"transactionDate"`
	Description       string          `json:"description"`
	Reference         string          `json:"reference"` // Bank-side identifier, unique per bank account
	// Match state. MatchedReconciliationID records the session the pairing was
	// made in so unmatch can honor the audit lock.
	MatchedPaymentID        *string    `json:"matchedPaymentID,omitempty"`
	MatchedReconciliationID *string    `json:"matchedReconciliationID,omitempty"`
	MatchedBy               *string    `json:"matchedBy,omitempty"`
	MatchedAt               *time.Time `json:"matchedAt,omitempty"`
	AuditFields
}

// IsMatched reports whether this bank transaction is paired with a payment.
func (b *BankTransaction) IsMatched() bool {
	return b.MatchedPaymentID != nil
}
