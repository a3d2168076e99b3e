package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks how much of an invoice has been settled.
type InvoiceStatus string

const (
	InvoiceOpen          InvoiceStatus = "OPEN"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
)

// Invoice is the minimal receivable view the payment allocator needs:
// auto-allocation applies unapplied payments oldest-first (FIFO) against
// outstanding balances.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"` // Primary Key (UUID)
	OrganizationID string          `json:"organizationID"`
	Number         string          `json:"number"`
	IssueDate      time.Time       `json:"issueDate"`
	Total          decimal.Decimal `json:"total"`
	Balance        decimal.Decimal `json:"balance"` // Outstanding amount
	Status         InvoiceStatus   `json:"status"`
	AuditFields
}
