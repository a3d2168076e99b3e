package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the lifecycle state of a reconciliation session.
// FINALIZED is terminal; there is no transition back.
type ReconciliationStatus string

const (
	ReconciliationInProgress ReconciliationStatus = "IN_PROGRESS"
	ReconciliationFinalized  ReconciliationStatus = "FINALIZED"
)

// BankReconciliation is one reconciliation session for a bank account and
// statement date. Once finalized the cleared sets and adjustment entries are
// permanently frozen (audit lock).
type BankReconciliation struct {
	ReconciliationID string          `json:"reconciliationID"` // Primary Key (UUID)
	OrganizationID   string          `json:"organizationID"`
	BankAccountID    string          `json:"bankAccountID"`
	StatementDate    time.Time       `json:"statementDate"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`

	Status ReconciliationStatus `json:"status"`

	// Session-scoped cleared sets and posted adjustment references.
	ClearedPaymentIDs     []string `json:"clearedPaymentIDs"`
	ClearedTransactionIDs []string `json:"clearedTransactionIDs"`
	AdjustmentEntryIDs    []string `json:"adjustmentEntryIDs"`

	FinalizedAt *time.Time `json:"finalizedAt,omitempty"`
	FinalizedBy *string    `json:"finalizedBy,omitempty"`

	// Version guards concurrent finalize; bumped on every mutation.
	Version int64 `json:"version"`
	AuditFields
}

// IsFinalized reports whether the session is locked against further mutation.
func (r *BankReconciliation) IsFinalized() bool {
	return r.Status == ReconciliationFinalized
}

// IsPaymentCleared reports whether the payment is cleared in this session.
func (r *BankReconciliation) IsPaymentCleared(paymentID string) bool {
	return slices.Contains(r.ClearedPaymentIDs, paymentID)
}

// IsTransactionCleared reports whether the bank transaction (or adjustment
// transaction) is cleared in this session.
func (r *BankReconciliation) IsTransactionCleared(transactionID string) bool {
	return slices.Contains(r.ClearedTransactionIDs, transactionID)
}
