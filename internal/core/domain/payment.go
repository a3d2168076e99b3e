package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks a payment through its allocation lifecycle.
type PaymentStatus string

const (
	PaymentUnapplied        PaymentStatus = "UNAPPLIED"
	PaymentPartiallyApplied PaymentStatus = "PARTIALLY_APPLIED"
	PaymentApplied          PaymentStatus = "APPLIED"
	PaymentVoided           PaymentStatus = "VOIDED"
)

// PaymentAllocation applies a slice of a payment against one invoice.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"` // Primary Key (UUID)
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
	AuditFields
}

// Payment is a cash receipt or disbursement recorded in the books.
// Clearing is session-scoped: whether a payment is cleared lives on the
// BankReconciliation, not here.
type Payment struct {
	PaymentID      string          `json:"paymentID"` // Primary Key (UUID)
	OrganizationID string          `json:"organizationID"`
	BankAccountID  string          `json:"bankAccountID"` // Ledger account money moved through
	Amount         decimal.Decimal `json:"amount"`        // Always non-negative
	Direction      FlowDirection   `json:"direction"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Reference      string          `json:"reference"`
	Status         PaymentStatus   `json:"status"`
	TransactionID  *string         `json:"transactionID,omitempty"` // GL transaction posted on receipt
	AuditFields
	Allocations []PaymentAllocation `json:"allocations,omitempty"`
}

// AllocatedAmount is the sum already applied to invoices.
func (p *Payment) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}
