package repositories

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InvoiceRepositoryFacade is the minimal receivable surface the payment
// allocator needs. Invoice CRUD itself lives elsewhere in the ERP.
type InvoiceRepositoryFacade interface {
	// ListOutstandingInvoices retrieves unpaid invoices oldest-first.
	ListOutstandingInvoices(ctx context.Context, organizationID string) ([]domain.Invoice, error)

	// ApplyPaymentInTx reduces an invoice balance inside a caller-owned
	// database transaction, updating the invoice status.
	ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID string, amount decimal.Decimal, userID string, now time.Time) error

	// UnapplyPaymentInTx restores a previously applied amount inside a
	// caller-owned database transaction.
	UnapplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID string, amount decimal.Decimal, userID string, now time.Time) error
}
