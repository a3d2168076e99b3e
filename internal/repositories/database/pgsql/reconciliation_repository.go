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

const reconciliationColumns = `reconciliation_id, organization_id, bank_account_id, statement_date, statement_balance, opening_balance, status, cleared_payment_ids, cleared_transaction_ids, adjustment_entry_ids, finalized_at, finalized_by, version, created_at, created_by, last_updated_at, last_updated_by`

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a new repository for reconciliation sessions.
func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxReconciliationRepository implements portsrepo.ReconciliationRepositoryFacade
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func scanReconciliationRow(row pgx.Row) (models.BankReconciliation, error) {
	var m models.BankReconciliation
	var finalizedAt sql.NullTime
	var finalizedBy sql.NullString
	err := row.Scan(
		&m.ReconciliationID,
		&m.OrganizationID,
		&m.BankAccountID,
		&m.StatementDate,
		&m.StatementBalance,
		&m.OpeningBalance,
		&m.Status,
		&m.ClearedPaymentIDs,
		&m.ClearedTransactionIDs,
		&m.AdjustmentEntryIDs,
		&finalizedAt,
		&finalizedBy,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.BankReconciliation{}, err
	}
	if finalizedAt.Valid {
		m.FinalizedAt = &finalizedAt.Time
	}
	if finalizedBy.Valid {
		m.FinalizedBy = &finalizedBy.String
	}
	// text[] columns scan to nil on empty; keep the domain sets non-nil
	if m.ClearedPaymentIDs == nil {
		m.ClearedPaymentIDs = []string{}
	}
	if m.ClearedTransactionIDs == nil {
		m.ClearedTransactionIDs = []string{}
	}
	if m.AdjustmentEntryIDs == nil {
		m.AdjustmentEntryIDs = []string{}
	}
	return m, nil
}

func findReconciliation(ctx context.Context, db rowQuerier, query string, args ...any) (*domain.BankReconciliation, error) {
	m, err := scanReconciliationRow(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation", err)
	}
	domainRecon := mapping.ToDomainBankReconciliation(m)
	return &domainRecon, nil
}

// FindReconciliationByID retrieves a reconciliation session by its ID.
func (r *PgxReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.BankReconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM bank_reconciliations
		WHERE reconciliation_id = $1;
	`
	return findReconciliation(ctx, r.Pool, query, reconciliationID)
}

// FindLatestFinalized retrieves the most recently finalized session for a bank
// account, or nil when the account has never been reconciled.
func (r *PgxReconciliationRepository) FindLatestFinalized(ctx context.Context, organizationID, bankAccountID string) (*domain.BankReconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM bank_reconciliations
		WHERE organization_id = $1 AND bank_account_id = $2 AND status = 'FINALIZED'
		ORDER BY statement_date DESC, finalized_at DESC
		LIMIT 1;
	`
	recon, err := findReconciliation(ctx, r.Pool, query, organizationID, bankAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return recon, nil
}

// ListItemIDsClearedElsewhere returns the item IDs cleared by finalized
// sessions of the bank account other than the given one. Items frozen by an
// earlier statement cannot be cleared again.
func (r *PgxReconciliationRepository) ListItemIDsClearedElsewhere(ctx context.Context, organizationID, bankAccountID, excludeReconciliationID string) (map[string]struct{}, error) {
	query := `
		SELECT unnest(cleared_payment_ids || cleared_transaction_ids)
		FROM bank_reconciliations
		WHERE organization_id = $1 AND bank_account_id = $2 AND status = 'FINALIZED'
		  AND reconciliation_id != $3;
	`
	rows, err := r.Pool.Query(ctx, query, organizationID, bankAccountID, excludeReconciliationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query cleared items for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	cleared := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan cleared item ID for bank account "+bankAccountID, err)
		}
		cleared[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating cleared item IDs for bank account "+bankAccountID, err)
	}

	return cleared, nil
}

// IsPaymentLockedByFinalized reports whether the payment is cleared or matched
// within any finalized session. Such payments are frozen by the audit lock.
func (r *PgxReconciliationRepository) IsPaymentLockedByFinalized(ctx context.Context, paymentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bank_reconciliations
			WHERE status = 'FINALIZED' AND $1 = ANY(cleared_payment_ids)
		) OR EXISTS (
			SELECT 1 FROM bank_transactions bt
			JOIN bank_reconciliations br ON bt.matched_reconciliation_id = br.reconciliation_id
			WHERE bt.matched_payment_id = $1 AND br.status = 'FINALIZED'
		);
	`
	var locked bool
	if err := r.Pool.QueryRow(ctx, query, paymentID).Scan(&locked); err != nil {
		return false, apperrors.NewAppError(500, "failed to check reconciliation lock for payment "+paymentID, err)
	}
	return locked, nil
}

// SaveReconciliation persists a new session.
func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, recon domain.BankReconciliation) error {
	m := mapping.ToModelBankReconciliation(recon)

	query := `
		INSERT INTO bank_reconciliations (reconciliation_id, organization_id, bank_account_id, statement_date, statement_balance, opening_balance, status, cleared_payment_ids, cleared_transaction_ids, adjustment_entry_ids, finalized_at, finalized_by, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ReconciliationID,
		m.OrganizationID,
		m.BankAccountID,
		m.StatementDate,
		m.StatementBalance,
		m.OpeningBalance,
		m.Status,
		m.ClearedPaymentIDs,
		m.ClearedTransactionIDs,
		m.AdjustmentEntryIDs,
		m.FinalizedAt,
		m.FinalizedBy,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: reconciliation with ID %s already exists", apperrors.ErrDuplicate, m.ReconciliationID)
		}
		return apperrors.NewAppError(500, "failed to save reconciliation "+m.ReconciliationID, err)
	}
	return nil
}

// UpdateClearedSetsInTx replaces the session's cleared sets and bumps the version.
func (r *PgxReconciliationRepository) UpdateClearedSetsInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, clearedPaymentIDs, clearedTransactionIDs []string, userID string, now time.Time) error {
	query := `
		UPDATE bank_reconciliations
		SET cleared_payment_ids = $2, cleared_transaction_ids = $3, version = version + 1,
		    last_updated_at = $4, last_updated_by = $5
		WHERE reconciliation_id = $1 AND status = 'IN_PROGRESS';
	`
	cmdTag, err := tx.Exec(ctx, query, reconciliationID, clearedPaymentIDs, clearedTransactionIDs, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update cleared sets for reconciliation "+reconciliationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// AppendAdjustmentInTx records a posted adjustment transaction on the session.
// The adjustment lands in both the adjustment list and the cleared set: a
// correcting entry exists precisely because the statement shows it.
func (r *PgxReconciliationRepository) AppendAdjustmentInTx(ctx context.Context, tx pgx.Tx, reconciliationID, transactionID string, userID string, now time.Time) error {
	query := `
		UPDATE bank_reconciliations
		SET adjustment_entry_ids = array_append(adjustment_entry_ids, $2),
		    cleared_transaction_ids = array_append(cleared_transaction_ids, $2),
		    version = version + 1,
		    last_updated_at = $3, last_updated_by = $4
		WHERE reconciliation_id = $1 AND status = 'IN_PROGRESS';
	`
	cmdTag, err := tx.Exec(ctx, query, reconciliationID, transactionID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to append adjustment to reconciliation "+reconciliationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// FinalizeInTx transitions the session to FINALIZED. The expected version
// guards against a concurrent mutation slipping between gap check and commit.
func (r *PgxReconciliationRepository) FinalizeInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, expectedVersion int64, userID string, now time.Time) error {
	query := `
		UPDATE bank_reconciliations
		SET status = 'FINALIZED', finalized_at = $3, finalized_by = $4, version = version + 1,
		    last_updated_at = $3, last_updated_by = $4
		WHERE reconciliation_id = $1 AND status = 'IN_PROGRESS' AND version = $2;
	`
	cmdTag, err := tx.Exec(ctx, query, reconciliationID, expectedVersion, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to finalize reconciliation "+reconciliationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Already finalized, missing, or mutated since the version was read.
		return apperrors.ErrConflict
	}
	return nil
}

// WithReconciliationLock runs fn inside a DB transaction that holds a row lock
// on the reconciliation. Mutations of the same session queue behind the lock;
// different sessions proceed in parallel. The transaction commits iff fn
// returns nil.
func (r *PgxReconciliationRepository) WithReconciliationLock(ctx context.Context, reconciliationID string, fn func(tx pgx.Tx, recon *domain.BankReconciliation) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored if the transaction commits successfully
	defer r.Rollback(ctx, tx)

	query := `
		SELECT ` + reconciliationColumns + `
		FROM bank_reconciliations
		WHERE reconciliation_id = $1
		FOR UPDATE;
	`
	recon, err := findReconciliation(ctx, tx, query, reconciliationID)
	if err != nil {
		return err
	}

	if err := fn(tx, recon); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}
