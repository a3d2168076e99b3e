package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType indicates whether a ledger entry is a Debit or a Credit.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// TransactionStatus indicates the state of a transaction.
type TransactionStatus string

const (
	Draft  TransactionStatus = "DRAFT"
	Posted TransactionStatus = "POSTED"
	Void   TransactionStatus = "VOID"
)

// TransactionType categorizes the origin of a transaction. Transaction numbers
// are sequential per type and period.
type TransactionType string

const (
	JournalTransaction    TransactionType = "JOURNAL"
	PaymentTransaction    TransactionType = "PAYMENT"
	AdjustmentTransaction TransactionType = "ADJUSTMENT"
)

// LedgerEntry is one debit or credit leg of a transaction against a single account.
// Entries are immutable once the parent transaction is posted; corrections happen
// through offsetting transactions, never in-place edits.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`       // Primary Key (UUID)
	TransactionID string          `json:"transactionID"` // FK -> Transaction (Not Null)
	AccountID     string          `json:"accountID"`     // FK -> Account (Not Null)
	EntryType     EntryType       `json:"entryType"`     // DEBIT or CREDIT
	Amount        decimal.Decimal `json:"amount"`        // Always non-negative
	Notes         string          `json:"notes"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this entry
}

// Transaction represents a single, balanced economic event composed of ledger entries.
// For every POSTED transaction sum(DEBIT) == sum(CREDIT) exactly.
type Transaction struct {
	TransactionID   string            `json:"transactionID"` // Primary Key (UUID)
	OrganizationID  string            `json:"organizationID"`
	Number          string            `json:"number"` // e.g. ADJ-2026-09-0001, sequential per type+month
	TransactionType TransactionType   `json:"transactionType"`
	TransactionDate time.Time         `json:"transactionDate"`
	Description     string            `json:"description"`
	CurrencyCode    string            `json:"currencyCode"`
	Status          TransactionStatus `json:"status"`
	// Reversal linkage: a reversing transaction points back at its original,
	// and the original records which transaction reversed it.
	OriginalTransactionID  *string `json:"originalTransactionID,omitempty"`
	ReversingTransactionID *string `json:"reversingTransactionID,omitempty"`
	AuditFields
	Entries []LedgerEntry `json:"entries,omitempty"` // Often loaded separately
}

// IsReversal reports whether this transaction was created to offset another one.
func (t *Transaction) IsReversal() bool {
	return t.OriginalTransactionID != nil
}
