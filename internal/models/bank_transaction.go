package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is the bank_transactions table row.
type BankTransaction struct {
	BankTransactionID       string          `json:"bankTransactionID"`
	OrganizationID          string          `json:"organizationID"`
	BankAccountID           string          `json:"bankAccountID"`
	Amount                  decimal.Decimal `json:"amount"`
	Direction               string          `json:"direction"`
	TransactionDate         time.Time       `json:"transactionDate"`
	Description             string          `json:"description"`
	Reference               string          `json:"reference"`
	MatchedPaymentID        *string         `json:"matchedPaymentID,omitempty"`
	MatchedReconciliationID *string         `json:"matchedReconciliationID,omitempty"`
	MatchedBy               *string         `json:"matchedBy,omitempty"`
	MatchedAt               *time.Time      `json:"matchedAt,omitempty"`
	AuditFields
}
