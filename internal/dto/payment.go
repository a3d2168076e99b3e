package dto

import (
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the data needed to record a payment.
type CreatePaymentRequest struct {
	BankAccountID        string               `json:"bankAccountID" binding:"required"`
	Amount               decimal.Decimal      `json:"amount" binding:"required,decimalgtzero"`
	Direction            domain.FlowDirection `json:"direction" binding:"required,oneof=INFLOW OUTFLOW"`
	PaymentDate          time.Time            `json:"paymentDate" binding:"required"`
	Reference            string               `json:"reference"`
	CounterpartAccountID string               `json:"counterpartAccountID" binding:"required"`
	AutoAllocate         bool                 `json:"autoAllocate"`
}

// PaymentAllocationResponse defines the data returned for one allocation.
type PaymentAllocationResponse struct {
	AllocationID string          `json:"allocationID"`
	InvoiceID    string          `json:"invoiceID"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID     string                      `json:"paymentID"`
	BankAccountID string                      `json:"bankAccountID"`
	Amount        decimal.Decimal             `json:"amount"`
	Direction     domain.FlowDirection        `json:"direction"`
	PaymentDate   time.Time                   `json:"paymentDate"`
	Reference     string                      `json:"reference"`
	Status        domain.PaymentStatus        `json:"status"`
	TransactionID *string                     `json:"transactionID,omitempty"`
	Allocations   []PaymentAllocationResponse `json:"allocations"`
	CreatedAt     time.Time                   `json:"createdAt"`
	CreatedBy     string                      `json:"createdBy"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	allocations := make([]PaymentAllocationResponse, len(p.Allocations))
	for i, alloc := range p.Allocations {
		allocations[i] = PaymentAllocationResponse{
			AllocationID: alloc.AllocationID,
			InvoiceID:    alloc.InvoiceID,
			Amount:       alloc.Amount,
		}
	}
	return PaymentResponse{
		PaymentID:     p.PaymentID,
		BankAccountID: p.BankAccountID,
		Amount:        p.Amount,
		Direction:     p.Direction,
		PaymentDate:   p.PaymentDate,
		Reference:     p.Reference,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		Allocations:   allocations,
		CreatedAt:     p.CreatedAt,
		CreatedBy:     p.CreatedBy,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(&p)
	}
	return responses
}
