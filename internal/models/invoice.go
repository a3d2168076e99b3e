package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus mirrors domain.InvoiceStatus for storage.
type InvoiceStatus string

// Invoice is the invoices table row.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"`
	OrganizationID string          `json:"organizationID"`
	Number         string          `json:"number"`
	IssueDate      time.Time       `json:"issueDate"`
	Total          decimal.Decimal `json:"total"`
	Balance        decimal.Decimal `json:"balance"`
	Status         InvoiceStatus   `json:"status"`
	AuditFields
}
