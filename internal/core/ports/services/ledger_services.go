package services

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/shopspring/decimal"
)

// PreparedTransaction is a validated, unbalanced-checked transaction that has
// not yet been persisted. Services that post ledger entries inside their own
// database transaction build one of these and hand it to the ledger repository.
type PreparedTransaction struct {
	Transaction    domain.Transaction
	Entries        []domain.LedgerEntry
	BalanceChanges map[string]decimal.Decimal
}

// LedgerReaderSvc defines read operations for ledger data
type LedgerReaderSvc interface {
	// GetTransactionByID retrieves a transaction with its entries.
	GetTransactionByID(ctx context.Context, organizationID string, transactionID string) (*domain.Transaction, error)

	// ListEntriesByAccount retrieves a paginated list of ledger entries for an account.
	ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerWriterSvc defines write operations for ledger data
type LedgerWriterSvc interface {
	// PostTransaction validates and persists a balanced journal transaction.
	PostTransaction(ctx context.Context, organizationID string, req dto.PostTransactionRequest, creatorUserID string) (*domain.Transaction, error)

	// ReverseTransaction posts a mirror-image transaction for an existing one.
	// The original stays POSTED; both sides carry the reversal linkage. The
	// reversal is dated reversalDate, or today when nil.
	ReverseTransaction(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*domain.Transaction, error)

	// VoidTransaction reverses a transaction and marks the original VOID.
	VoidTransaction(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*domain.Transaction, error)
}

// LedgerPreparerSvc builds prepared transactions for services that persist
// ledger rows inside a database transaction they own.
type LedgerPreparerSvc interface {
	// PrepareTransaction validates the request and returns the rows to insert
	// along with the balance deltas they imply.
	PrepareTransaction(ctx context.Context, organizationID string, transactionType domain.TransactionType, req dto.PostTransactionRequest, creatorUserID string) (*PreparedTransaction, error)

	// PrepareReversal builds the mirror image of an existing posted transaction,
	// dated reversalDate (today when nil).
	PrepareReversal(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*PreparedTransaction, error)
}

// LedgerCalculatorSvc defines calculation operations over ledger data
type LedgerCalculatorSvc interface {
	// RecomputeAccountBalance re-derives an account balance from its entries
	// and reports it, for checking against the materialized balance.
	RecomputeAccountBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerPreparerSvc
	LedgerCalculatorSvc
}
