package repositories

import (
	"context"
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// BankTransactionReader defines read operations for bank transaction data
type BankTransactionReader interface {
	// FindBankTransactionByID retrieves a bank transaction by its ID.
	FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error)

	// FindBankTransactionByIDForUpdate retrieves and row-locks a bank
	// transaction inside a caller-owned database transaction.
	FindBankTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, bankTransactionID string) (*domain.BankTransaction, error)

	// FindMatchForPaymentInTx retrieves the bank transaction currently matched
	// to the payment, or nil when the payment is unmatched.
	FindMatchForPaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.BankTransaction, error)

	// ListUnmatchedBankTransactions retrieves unmatched bank transactions on
	// the bank account dated on or before the given date.
	ListUnmatchedBankTransactions(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.BankTransaction, error)

	// ListBankTransactionsForClearing retrieves bank transactions on the bank
	// account dated on or before the given date, regardless of match state.
	ListBankTransactionsForClearing(ctx context.Context, organizationID, bankAccountID string, onOrBefore time.Time) ([]domain.BankTransaction, error)
}

// BankTransactionWriter defines write operations for bank transaction data
type BankTransactionWriter interface {
	// SaveBankTransaction persists one imported bank-feed line. Returns
	// apperrors.ErrDuplicate when the bank-side reference was already imported.
	SaveBankTransaction(ctx context.Context, bankTxn domain.BankTransaction) error

	// SetMatchedPaymentInTx records a pairing inside a caller-owned database transaction.
	SetMatchedPaymentInTx(ctx context.Context, tx pgx.Tx, bankTransactionID, paymentID, reconciliationID, userID string, now time.Time) error

	// ClearMatchedPaymentInTx removes a pairing inside a caller-owned database transaction.
	ClearMatchedPaymentInTx(ctx context.Context, tx pgx.Tx, bankTransactionID string, userID string, now time.Time) error
}

// BankTransactionRepositoryFacade combines all bank-transaction repository interfaces
type BankTransactionRepositoryFacade interface {
	BankTransactionReader
	BankTransactionWriter
}
