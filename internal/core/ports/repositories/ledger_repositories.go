package repositories

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations for ledger data
type LedgerReader interface {
	// FindTransactionByID retrieves a transaction header (without entries).
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindEntriesByTransactionID retrieves all ledger entries of a transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// FindEntriesByTransactionIDs retrieves entries for multiple transactions, grouped by transaction ID.
	FindEntriesByTransactionIDs(ctx context.Context, transactionIDs []string) (map[string][]domain.LedgerEntry, error)

	// ListEntriesByAccountID retrieves a paginated list of entries for an account using token-based pagination.
	ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumEntriesByAccountID recomputes the signed sum of all posted entries for
	// an account, the consistency check behind the materialized balance.
	SumEntriesByAccountID(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// LedgerWriter defines write operations for ledger data
type LedgerWriter interface {
	// SaveTransaction persists a transaction with its entries and applies
	// balance deltas atomically. The assigned sequential number and per-entry
	// running balances are set on the returned transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error)

	// SaveTransactionInTx is SaveTransaction inside a caller-owned database transaction.
	SaveTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) (*domain.Transaction, error)

	// UpdateTransactionStatusAndLinks updates the status and reversal linkage of a transaction.
	UpdateTransactionStatusAndLinks(ctx context.Context, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error

	// UpdateTransactionStatusAndLinksInTx is UpdateTransactionStatusAndLinks inside a caller-owned database transaction.
	UpdateTransactionStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, transactionID string, status domain.TransactionStatus, reversingTransactionID *string, originalTransactionID *string, updatedByUserID string, updatedAt time.Time) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
