package repositories

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a payment with its allocations.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentByIDInTx retrieves a payment inside a caller-owned database transaction.
	FindPaymentByIDInTx(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error)

	// ListUnmatchedPayments retrieves unvoided payments on the bank account,
	// dated on or before the given date, with no bank transaction matched to them.
	ListUnmatchedPayments(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.Payment, error)

	// ListPaymentsForClearing retrieves unvoided payments on the bank account
	// dated on or before the given date, regardless of match state.
	ListPaymentsForClearing(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.Payment, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// SavePayment persists a new payment.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// SavePaymentInTx is SavePayment inside a caller-owned database transaction.
	SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error

	// SaveAllocationsInTx inserts payment allocations inside a caller-owned database transaction.
	SaveAllocationsInTx(ctx context.Context, tx pgx.Tx, allocations []domain.PaymentAllocation) error

	// DeleteAllocationsInTx removes all allocations of a payment inside a caller-owned database transaction.
	DeleteAllocationsInTx(ctx context.Context, tx pgx.Tx, paymentID string) error

	// UpdatePaymentStatusInTx updates a payment's status inside a caller-owned database transaction.
	UpdatePaymentStatusInTx(ctx context.Context, tx pgx.Tx, paymentID string, status domain.PaymentStatus, userID string, now time.Time) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

// PaymentRepositoryWithTx extends PaymentRepositoryFacade with transaction capabilities
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}
