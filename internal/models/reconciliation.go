package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus mirrors domain.ReconciliationStatus for storage.
type ReconciliationStatus string

// BankReconciliation is the bank_reconciliations table row. The cleared sets
// and adjustment references are stored as text[] columns.
type BankReconciliation struct {
	ReconciliationID      string               `json:"reconciliationID"`
	OrganizationID        string               `json:"organizationID"`
	BankAccountID         string               `json:"bankAccountID"`
	StatementDate         time.Time            `json:"statementDate"`
	StatementBalance      decimal.Decimal      `json:"statementBalance"`
	OpeningBalance        decimal.Decimal      `json:"openingBalance"`
	Status                ReconciliationStatus `json:"status"`
	ClearedPaymentIDs     []string             `json:"clearedPaymentIDs"`
	ClearedTransactionIDs []string             `json:"clearedTransactionIDs"`
	AdjustmentEntryIDs    []string             `json:"adjustmentEntryIDs"`
	FinalizedAt           *time.Time           `json:"finalizedAt,omitempty"`
	FinalizedBy           *string              `json:"finalizedBy,omitempty"`
	Version               int64                `json:"version"`
	AuditFields
}
