package pgsql

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	"github.com/finlens/bank_recon_app/internal/models"
	"github.com/finlens/bank_recon_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxInvoiceRepository struct {
	pool *pgxpool.Pool
}

// newPgxInvoiceRepository creates a new repository for the receivable view the
// payment allocator works against.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{pool: pool}
}

// Ensure PgxInvoiceRepository implements portsrepo.InvoiceRepositoryFacade
var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

// ListOutstandingInvoices retrieves unpaid invoices oldest-first, the order
// FIFO auto-allocation consumes them in.
func (r *PgxInvoiceRepository) ListOutstandingInvoices(ctx context.Context, organizationID string) ([]domain.Invoice, error) {
	query := `
		SELECT invoice_id, organization_id, number, issue_date, total, balance, status, created_at, created_by, last_updated_at, last_updated_by
		FROM invoices
		WHERE organization_id = $1 AND status != 'PAID' AND balance > 0
		ORDER BY issue_date, created_at;
	`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query outstanding invoices for organization "+organizationID, err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var m models.Invoice
		if err := rows.Scan(
			&m.InvoiceID,
			&m.OrganizationID,
			&m.Number,
			&m.IssueDate,
			&m.Total,
			&m.Balance,
			&m.Status,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan invoice row for organization "+organizationID, err)
		}
		invoices = append(invoices, m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating invoice rows for organization "+organizationID, err)
	}

	return mapping.ToDomainInvoiceSlice(invoices), nil
}

// ApplyPaymentInTx reduces an invoice balance and derives the new status.
// The balance floor guards against over-application racing past the allocator.
func (r *PgxInvoiceRepository) ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID string, amount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET balance = balance - $2,
		    status = CASE
			WHEN balance - $2 <= 0 THEN 'PAID'
			WHEN balance - $2 < total THEN 'PARTIALLY_PAID'
			ELSE 'OPEN'
		    END,
		    last_updated_at = $3, last_updated_by = $4
		WHERE invoice_id = $1 AND balance >= $2;
	`
	cmdTag, err := tx.Exec(ctx, query, invoiceID, amount, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply payment to invoice "+invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Missing invoice or the outstanding balance no longer covers the amount.
		return apperrors.ErrConflict
	}
	return nil
}

// UnapplyPaymentInTx restores a previously applied amount.
func (r *PgxInvoiceRepository) UnapplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID string, amount decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE invoices
		SET balance = balance + $2,
		    status = CASE
			WHEN balance + $2 >= total THEN 'OPEN'
			ELSE 'PARTIALLY_PAID'
		    END,
		    last_updated_at = $3, last_updated_by = $4
		WHERE invoice_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, invoiceID, amount, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to unapply payment from invoice "+invoiceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
