package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus mirrors domain.TransactionStatus for storage.
type TransactionStatus string

// EntryType mirrors domain.EntryType for storage.
type EntryType string

// Transaction is the transactions table row.
type Transaction struct {
	TransactionID          string            `json:"transactionID"`
	OrganizationID         string            `json:"organizationID"`
	Number                 string            `json:"number"`
	TransactionType        string            `json:"transactionType"`
	TransactionDate        time.Time         `json:"transactionDate"`
	Description            string            `json:"description"`
	CurrencyCode           string            `json:"currencyCode"`
	Status                 TransactionStatus `json:"status"`
	OriginalTransactionID  *string           `json:"originalTransactionID,omitempty"`
	ReversingTransactionID *string           `json:"reversingTransactionID,omitempty"`
	AuditFields
}

// LedgerEntry is the ledger_entries table row.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	EntryType     EntryType       `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         string          `json:"notes"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"`
}
