package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	"github.com/finlens/bank_recon_app/internal/models"
	"github.com/finlens/bank_recon_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, organization_id, bank_account_id, amount, direction, payment_date, reference, status, transaction_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxPaymentRepository implements portsrepo.PaymentRepositoryWithTx
var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

// rowQuerier is the subset of pgxpool.Pool and pgx.Tx needed for reads.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanPaymentRow(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	var transactionID sql.NullString
	err := row.Scan(
		&m.PaymentID,
		&m.OrganizationID,
		&m.BankAccountID,
		&m.Amount,
		&m.Direction,
		&m.PaymentDate,
		&m.Reference,
		&m.Status,
		&transactionID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Payment{}, err
	}
	if transactionID.Valid {
		m.TransactionID = &transactionID.String
	}
	return m, nil
}

func findPaymentByID(ctx context.Context, db rowQuerier, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE payment_id = $1;
	`
	m, err := scanPaymentRow(db.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find payment by ID "+paymentID, err)
	}

	allocations, err := findAllocationsByPaymentID(ctx, db, paymentID)
	if err != nil {
		return nil, err
	}

	domainPayment := mapping.ToDomainPayment(m)
	domainPayment.Allocations = allocations
	return &domainPayment, nil
}

func findAllocationsByPaymentID(ctx context.Context, db rowQuerier, paymentID string) ([]domain.PaymentAllocation, error) {
	query := `
		SELECT allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by
		FROM payment_allocations
		WHERE payment_id = $1
		ORDER BY created_at, allocation_id;
	`
	rows, err := db.Query(ctx, query, paymentID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocations for payment "+paymentID, err)
	}
	defer rows.Close()

	allocations := []models.PaymentAllocation{}
	for rows.Next() {
		var a models.PaymentAllocation
		if err := rows.Scan(
			&a.AllocationID,
			&a.PaymentID,
			&a.InvoiceID,
			&a.Amount,
			&a.CreatedAt,
			&a.CreatedBy,
			&a.LastUpdatedAt,
			&a.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row for payment "+paymentID, err)
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating allocation rows for payment "+paymentID, err)
	}

	return mapping.ToDomainPaymentAllocationSlice(allocations), nil
}

// FindPaymentByID retrieves a payment together with its allocations.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return findPaymentByID(ctx, r.Pool, paymentID)
}

// FindPaymentByIDInTx retrieves a payment inside a caller-owned DB transaction.
func (r *PgxPaymentRepository) FindPaymentByIDInTx(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	return findPaymentByID(ctx, tx, paymentID)
}

func (r *PgxPaymentRepository) listPayments(ctx context.Context, query, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.Payment, error) {
	rows, err := r.Pool.Query(ctx, query, organizationID, bankAccountID, onOrBefore)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		m, err := scanPaymentRow(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row for bank account "+bankAccountID, err)
		}
		payments = append(payments, m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating payment rows for bank account "+bankAccountID, err)
	}

	return mapping.ToDomainPaymentSlice(payments), nil
}

// ListUnmatchedPayments retrieves unvoided payments on a bank account dated on
// or before the given date that no bank transaction has been matched to.
func (r *PgxPaymentRepository) ListUnmatchedPayments(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE organization_id = $1 AND bank_account_id = $2 AND payment_date <= $3
		  AND status != 'VOIDED'
		  AND NOT EXISTS (
			SELECT 1 FROM bank_transactions bt WHERE bt.matched_payment_id = payments.payment_id
		  )
		ORDER BY payment_date, created_at;
	`
	return r.listPayments(ctx, query, organizationID, bankAccountID, onOrBefore)
}

// ListPaymentsForClearing retrieves unvoided payments on a bank account dated
// on or before the given date, regardless of match state.
func (r *PgxPaymentRepository) ListPaymentsForClearing(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE organization_id = $1 AND bank_account_id = $2 AND payment_date <= $3
		  AND status != 'VOIDED'
		ORDER BY payment_date, created_at;
	`
	return r.listPayments(ctx, query, organizationID, bankAccountID, onOrBefore)
}

func savePayment(ctx context.Context, db execer, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)

	query := `
		INSERT INTO payments (payment_id, organization_id, bank_account_id, amount, direction, payment_date, reference, status, transaction_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := db.Exec(ctx, query,
		m.PaymentID,
		m.OrganizationID,
		m.BankAccountID,
		m.Amount,
		m.Direction,
		m.PaymentDate,
		m.Reference,
		m.Status,
		m.TransactionID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: payment with ID %s already exists", apperrors.ErrDuplicate, m.PaymentID)
		}
		return apperrors.NewAppError(500, "failed to save payment "+m.PaymentID, err)
	}
	return nil
}

// SavePayment persists a new payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	return savePayment(ctx, r.Pool, payment)
}

// SavePaymentInTx is SavePayment inside a caller-owned DB transaction.
func (r *PgxPaymentRepository) SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error {
	return savePayment(ctx, tx, payment)
}

// SaveAllocationsInTx inserts payment allocations inside a caller-owned DB transaction.
func (r *PgxPaymentRepository) SaveAllocationsInTx(ctx context.Context, tx pgx.Tx, allocations []domain.PaymentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	query := `
		INSERT INTO payment_allocations (allocation_id, payment_id, invoice_id, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for _, allocation := range allocations {
		m := mapping.ToModelPaymentAllocation(allocation)
		batch.Queue(query,
			m.AllocationID,
			m.PaymentID,
			m.InvoiceID,
			m.Amount,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute allocation batch", err)
	}
	return nil
}

// DeleteAllocationsInTx removes all allocations of a payment inside a caller-owned DB transaction.
func (r *PgxPaymentRepository) DeleteAllocationsInTx(ctx context.Context, tx pgx.Tx, paymentID string) error {
	query := `DELETE FROM payment_allocations WHERE payment_id = $1;`
	if _, err := tx.Exec(ctx, query, paymentID); err != nil {
		return apperrors.NewAppError(500, "failed to delete allocations for payment "+paymentID, err)
	}
	return nil
}

// UpdatePaymentStatusInTx updates a payment's status inside a caller-owned DB transaction.
func (r *PgxPaymentRepository) UpdatePaymentStatusInTx(ctx context.Context, tx pgx.Tx, paymentID string, status domain.PaymentStatus, userID string, now time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, paymentID, string(status), now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for payment "+paymentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
