package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// PaymentReaderSvc defines read operations for payment data
type PaymentReaderSvc interface {
	// GetPaymentByID retrieves a payment with its allocations.
	GetPaymentByID(ctx context.Context, organizationID string, paymentID string) (*domain.Payment, error)
}

// PaymentWriterSvc defines write operations for payment data
type PaymentWriterSvc interface {
	// CreatePayment records a payment, posts its ledger transaction, and
	// optionally allocates it against outstanding invoices oldest-first.
	CreatePayment(ctx context.Context, organizationID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error)

	// VoidPayment reverses a payment's ledger transaction, releases its
	// allocations and any bank-transaction match, and marks it VOIDED.
	// Payments locked by a finalized reconciliation cannot be voided.
	VoidPayment(ctx context.Context, organizationID string, paymentID string, userID string) error
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
