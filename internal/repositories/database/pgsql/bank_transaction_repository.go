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

const bankTransactionColumns = `bank_transaction_id, organization_id, bank_account_id, amount, direction, transaction_date, description, reference, matched_payment_id, matched_reconciliation_id, matched_by, matched_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxBankTransactionRepository struct {
	pool *pgxpool.Pool
}

// newPgxBankTransactionRepository creates a new repository for imported bank feed lines.
func newPgxBankTransactionRepository(pool *pgxpool.Pool) portsrepo.BankTransactionRepositoryFacade {
	return &PgxBankTransactionRepository{pool: pool}
}

// Ensure PgxBankTransactionRepository implements portsrepo.BankTransactionRepositoryFacade
var _ portsrepo.BankTransactionRepositoryFacade = (*PgxBankTransactionRepository)(nil)

func scanBankTransactionRow(row pgx.Row) (models.BankTransaction, error) {
	var m models.BankTransaction
	var matchedPaymentID sql.NullString
	var matchedReconciliationID sql.NullString
	var matchedBy sql.NullString
	var matchedAt sql.NullTime
	err := row.Scan(
		&m.BankTransactionID,
		&m.OrganizationID,
		&m.BankAccountID,
		&m.Amount,
		&m.Direction,
		&m.TransactionDate,
		&m.Description,
		&m.Reference,
		&matchedPaymentID,
		&matchedReconciliationID,
		&matchedBy,
		&matchedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.BankTransaction{}, err
	}
	if matchedPaymentID.Valid {
		m.MatchedPaymentID = &matchedPaymentID.String
	}
	if matchedReconciliationID.Valid {
		m.MatchedReconciliationID = &matchedReconciliationID.String
	}
	if matchedBy.Valid {
		m.MatchedBy = &matchedBy.String
	}
	if matchedAt.Valid {
		m.MatchedAt = &matchedAt.Time
	}
	return m, nil
}

func findBankTransaction(ctx context.Context, db rowQuerier, query string, args ...any) (*domain.BankTransaction, error) {
	m, err := scanBankTransactionRow(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bank transaction", err)
	}
	domainTxn := mapping.ToDomainBankTransaction(m)
	return &domainTxn, nil
}

// FindBankTransactionByID retrieves a bank transaction by its ID.
func (r *PgxBankTransactionRepository) FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE bank_transaction_id = $1;
	`
	return findBankTransaction(ctx, r.pool, query, bankTransactionID)
}

// FindBankTransactionByIDForUpdate retrieves a bank transaction and locks its
// row. Must be called within a transaction.
func (r *PgxBankTransactionRepository) FindBankTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, bankTransactionID string) (*domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE bank_transaction_id = $1
		FOR UPDATE;
	`
	return findBankTransaction(ctx, tx, query, bankTransactionID)
}

// FindMatchForPaymentInTx retrieves the bank transaction currently matched to
// the payment, or nil when the payment is unmatched.
func (r *PgxBankTransactionRepository) FindMatchForPaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE matched_payment_id = $1
		FOR UPDATE;
	`
	bankTxn, err := findBankTransaction(ctx, tx, query, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return bankTxn, nil
}

func (r *PgxBankTransactionRepository) listBankTransactions(ctx context.Context, query, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.BankTransaction, error) {
	rows, err := r.pool.Query(ctx, query, organizationID, bankAccountID, onOrBefore)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query bank transactions for account "+bankAccountID, err)
	}
	defer rows.Close()

	bankTxns := []models.BankTransaction{}
	for rows.Next() {
		m, err := scanBankTransactionRow(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank transaction row for account "+bankAccountID, err)
		}
		bankTxns = append(bankTxns, m)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank transaction rows for account "+bankAccountID, err)
	}

	return mapping.ToDomainBankTransactionSlice(bankTxns), nil
}

// ListUnmatchedBankTransactions retrieves unmatched bank transactions on a bank
// account dated on or before the given date.
func (r *PgxBankTransactionRepository) ListUnmatchedBankTransactions(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE organization_id = $1 AND bank_account_id = $2 AND transaction_date <= $3
		  AND matched_payment_id IS NULL
		ORDER BY transaction_date, created_at;
	`
	return r.listBankTransactions(ctx, query, organizationID, bankAccountID, onOrBefore)
}

// ListBankTransactionsForClearing retrieves bank transactions on a bank account
// dated on or before the given date, regardless of match state.
func (r *PgxBankTransactionRepository) ListBankTransactionsForClearing(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE organization_id = $1 AND bank_account_id = $2 AND transaction_date <= $3
		ORDER BY transaction_date, created_at;
	`
	return r.listBankTransactions(ctx, query, organizationID, bankAccountID, onOrBefore)
}

// SaveBankTransaction persists one imported bank feed line. The bank-side
// reference is unique per bank account; re-importing a line maps to ErrDuplicate.
func (r *PgxBankTransactionRepository) SaveBankTransaction(ctx context.Context, bankTxn domain.BankTransaction) error {
	m := mapping.ToModelBankTransaction(bankTxn)

	query := `
		INSERT INTO bank_transactions (bank_transaction_id, organization_id, bank_account_id, amount, direction, transaction_date, description, reference, matched_payment_id, matched_reconciliation_id, matched_by, matched_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.pool.Exec(ctx, query,
		m.BankTransactionID,
		m.OrganizationID,
		m.BankAccountID,
		m.Amount,
		m.Direction,
		m.TransactionDate,
		m.Description,
		m.Reference,
		m.MatchedPaymentID,
		m.MatchedReconciliationID,
		m.MatchedBy,
		m.MatchedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: bank transaction with reference %s already imported", apperrors.ErrDuplicate, m.Reference)
		}
		return apperrors.NewAppError(500, "failed to save bank transaction "+m.BankTransactionID, err)
	}
	return nil
}

// SetMatchedPaymentInTx records a pairing inside a caller-owned DB transaction.
// Only an unmatched row accepts the pairing, so two concurrent matches against
// the same bank transaction cannot both succeed.
func (r *PgxBankTransactionRepository) SetMatchedPaymentInTx(ctx context.Context, tx pgx.Tx, bankTransactionID, paymentID, reconciliationID, userID string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET matched_payment_id = $2, matched_reconciliation_id = $3, matched_by = $4, matched_at = $5,
		    last_updated_at = $5, last_updated_by = $4
		WHERE bank_transaction_id = $1 AND matched_payment_id IS NULL;
	`
	cmdTag, err := tx.Exec(ctx, query, bankTransactionID, paymentID, reconciliationID, userID, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set match on bank transaction "+bankTransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the row doesn't exist or it is already matched.
		_, findErr := r.FindBankTransactionByID(ctx, bankTransactionID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return findErr
		}
		return apperrors.ErrConflict
	}
	return nil
}

// ClearMatchedPaymentInTx removes a pairing inside a caller-owned DB transaction.
func (r *PgxBankTransactionRepository) ClearMatchedPaymentInTx(ctx context.Context, tx pgx.Tx, bankTransactionID string, userID string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET matched_payment_id = NULL, matched_reconciliation_id = NULL, matched_by = NULL, matched_at = NULL,
		    last_updated_at = $2, last_updated_by = $3
		WHERE bank_transaction_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, bankTransactionID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to clear match on bank transaction "+bankTransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
