package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors domain.PaymentStatus for storage.
type PaymentStatus string

// Payment is the payments table row.
type Payment struct {
	PaymentID      string          `json:"paymentID"`
	OrganizationID string          `json:"organizationID"`
	BankAccountID  string          `json:"bankAccountID"`
	Amount         decimal.Decimal `json:"amount"`
	Direction      string          `json:"direction"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Reference      string          `json:"reference"`
	Status         PaymentStatus   `json:"status"`
	TransactionID  *string         `json:"transactionID,omitempty"`
	AuditFields
}

// PaymentAllocation is the payment_allocations table row.
type PaymentAllocation struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
	AuditFields
}
