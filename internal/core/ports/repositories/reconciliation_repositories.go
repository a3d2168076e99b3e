package repositories

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ReconciliationReader defines read operations for reconciliation sessions
type ReconciliationReader interface {
	// FindReconciliationByID retrieves a reconciliation session by its ID.
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.BankReconciliation, error)

	// FindLatestFinalized retrieves the most recently finalized session for a
	// bank account, or nil when the account has never been reconciled.
	FindLatestFinalized(ctx context.Context, organizationID, bankAccountID string) (*domain.BankReconciliation, error)

	// ListItemIDsClearedElsewhere returns the item IDs cleared by finalized
	// sessions of the bank account other than the given one.
	ListItemIDsClearedElsewhere(ctx context.Context, organizationID, bankAccountID, excludeReconciliationID string) (map[string]struct{}, error)

	// IsPaymentLockedByFinalized reports whether the payment is cleared or
	// matched within any finalized session (the audit lock).
	IsPaymentLockedByFinalized(ctx context.Context, paymentID string) (bool, error)
}

// ReconciliationWriter defines write operations for reconciliation sessions
type ReconciliationWriter interface {
	// SaveReconciliation persists a new session.
	SaveReconciliation(ctx context.Context, recon domain.BankReconciliation) error

	// UpdateClearedSetsInTx replaces the session's cleared sets and bumps the
	// version, inside a caller-owned database transaction.
	UpdateClearedSetsInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, clearedPaymentIDs, clearedTransactionIDs []string, userID string, now time.Time) error

	// AppendAdjustmentInTx records a posted adjustment transaction on the
	// session and marks it cleared, inside a caller-owned database transaction.
	AppendAdjustmentInTx(ctx context.Context, tx pgx.Tx, reconciliationID, transactionID string, userID string, now time.Time) error

	// FinalizeInTx transitions the session to FINALIZED. The expected version
	// guards against a concurrent finalize slipping through.
	FinalizeInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, expectedVersion int64, userID string, now time.Time) error
}

// ReconciliationLocker serializes mutations of one reconciliation session.
type ReconciliationLocker interface {
	// WithReconciliationLock runs fn inside a database transaction that holds
	// a row lock on the reconciliation. Concurrent mutations of the same
	// session queue behind the lock; different sessions proceed in parallel.
	// The transaction commits iff fn returns nil.
	WithReconciliationLock(ctx context.Context, reconciliationID string, fn func(tx pgx.Tx, recon *domain.BankReconciliation) error) error
}

// ReconciliationRepositoryFacade combines all reconciliation repository interfaces
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
	ReconciliationLocker
}
