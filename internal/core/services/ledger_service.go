package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/finlens/bank_recon_app/internal/utils/accounting"
)

var (
	ErrUnbalancedEntry    = errors.New("ledger entries do not balance to zero")
	ErrMinEntries         = errors.New("transaction must have at least two ledger entries")
	ErrMinAccounts        = errors.New("transaction must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCurrencyMismatch   = errors.New("account currency does not match transaction currency")
	ErrDescriptionMissing = errors.New("transaction description is required")
	ErrAlreadyVoided      = errors.New("transaction is already void")
	ErrAlreadyReversed    = errors.New("transaction has already been reversed")
)

// ledgerService provides double-entry posting, reversal and entry listing.
type ledgerService struct {
	ledgerRepo portsrepo.LedgerRepositoryWithTx
	accountSvc portssvc.AccountSvcFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountSvc portssvc.AccountSvcFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		accountSvc: accountSvc,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// PrepareTransaction validates a posting request and builds the rows to
// insert along with the balance deltas they imply. Nothing is persisted.
func (s *ledgerService) PrepareTransaction(ctx context.Context, organizationID string, transactionType domain.TransactionType, req dto.PostTransactionRequest, creatorUserID string) (*portssvc.PreparedTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.Entries) < 2 {
		return nil, ErrMinEntries
	}

	accountSet := make(map[string]bool)
	for _, entry := range req.Entries {
		accountSet[entry.AccountID] = true
	}
	if len(accountSet) < 2 {
		return nil, ErrMinAccounts
	}

	if req.Description == "" {
		return nil, ErrDescriptionMissing
	}

	now := time.Now().UTC()
	transactionID := uuid.NewString()

	entries := make([]domain.LedgerEntry, len(req.Entries))
	accountIDs := make([]string, 0, len(req.Entries))
	for i, entryReq := range req.Entries {
		if entryReq.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: entry amount must be positive for account %s", apperrors.ErrValidation, entryReq.AccountID)
		}

		entries[i] = domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: transactionID,
			AccountID:     entryReq.AccountID,
			EntryType:     entryReq.EntryType,
			Amount:        entryReq.Amount,
			Notes:         entryReq.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
			// RunningBalance is calculated and set by the repository
		}
		accountIDs = append(accountIDs, entryReq.AccountID)
	}

	if err := accounting.ValidateTransactionBalance(entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnbalancedEntry, err)
	}

	uniqueAccountIDs := uniqueStrings(accountIDs)
	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, organizationID, uniqueAccountIDs)
	if err != nil {
		logger.Error("Failed to fetch accounts for transaction posting", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	accountTypes := make(map[string]domain.AccountType)
	for _, id := range uniqueAccountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if acc.CurrencyCode != req.CurrencyCode {
			return nil, fmt.Errorf("%w: account currency %s does not match transaction currency %s for account %s", ErrCurrencyMismatch, acc.CurrencyCode, req.CurrencyCode, id)
		}
		accountTypes[id] = acc.AccountType
	}

	balanceChanges := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		signedAmount, err := accounting.CalculateSignedAmount(entry, accountTypes[entry.AccountID])
		if err != nil {
			logger.Error("Error calculating signed amount during balance change calculation", slog.String("error", err.Error()), slog.String("entry_id", entry.EntryID))
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[entry.AccountID] = balanceChanges[entry.AccountID].Add(signedAmount)
	}

	txn := domain.Transaction{
		TransactionID:   transactionID,
		OrganizationID:  organizationID,
		TransactionType: transactionType,
		TransactionDate: req.TransactionDate,
		Description:     req.Description,
		CurrencyCode:    req.CurrencyCode,
		Status:          domain.Posted,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	return &portssvc.PreparedTransaction{
		Transaction:    txn,
		Entries:        entries,
		BalanceChanges: balanceChanges,
	}, nil
}

// PostTransaction validates and persists a balanced journal transaction.
func (s *ledgerService) PostTransaction(ctx context.Context, organizationID string, req dto.PostTransactionRequest, creatorUserID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	prepared, err := s.PrepareTransaction(ctx, organizationID, domain.JournalTransaction, req, creatorUserID)
	if err != nil {
		return nil, err
	}

	saved, err := s.ledgerRepo.SaveTransaction(ctx, prepared.Transaction, prepared.Entries, prepared.BalanceChanges)
	if err != nil {
		logger.Error("Failed to save transaction", slog.String("error", err.Error()), slog.String("transaction_id", prepared.Transaction.TransactionID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("Transaction posted successfully", slog.String("transaction_id", saved.TransactionID), slog.String("number", saved.Number))
	return saved, nil
}

// GetTransactionByID retrieves a transaction with its entries.
func (s *ledgerService) GetTransactionByID(ctx context.Context, organizationID string, transactionID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find transaction by ID", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		}
		return nil, err
	}

	if txn.OrganizationID != organizationID {
		// Obscure existence across tenants
		return nil, apperrors.ErrNotFound
	}

	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		logger.Error("Failed to fetch entries for transaction", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to retrieve entries for transaction %s: %w", transactionID, apperrors.ErrInternal)
	}
	txn.Entries = entries

	return txn, nil
}

// ListEntriesByAccount retrieves a paginated list of ledger entries for an account.
func (s *ledgerService) ListEntriesByAccount(ctx context.Context, organizationID string, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Verify the account belongs to the caller's organization
	if _, err := s.accountSvc.GetAccountByID(ctx, organizationID, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccountID(ctx, organizationID, accountID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list entries by account from repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// validateReversalAndGetOriginal fetches the original transaction with its
// entries and checks it is eligible for reversal.
func (s *ledgerService) validateReversalAndGetOriginal(ctx context.Context, organizationID string, transactionID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.GetTransactionByID(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}

	if original.Status == domain.Void {
		return nil, fmt.Errorf("%w: transaction %s", ErrAlreadyVoided, transactionID)
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: transaction status is %s, expected POSTED", apperrors.ErrConflict, original.Status)
	}
	if original.ReversingTransactionID != nil {
		logger.Warn("Attempted to reverse an already reversed transaction", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("%w: transaction %s", ErrAlreadyReversed, transactionID)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: cannot reverse a transaction that is already a reversal", apperrors.ErrConflict)
	}

	return original, nil
}

// PrepareReversal builds the mirror image of an existing posted transaction:
// same accounts and amounts, every DEBIT turned CREDIT and vice versa. The
// reversal is dated reversalDate, defaulting to today so the original period
// stays untouched.
func (s *ledgerService) PrepareReversal(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*portssvc.PreparedTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.validateReversalAndGetOriginal(ctx, organizationID, transactionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transactionDate := now
	if reversalDate != nil {
		transactionDate = reversalDate.UTC()
	}
	reversalID := uuid.NewString()

	reversalEntries := make([]domain.LedgerEntry, len(original.Entries))
	accountIDs := make([]string, 0, len(original.Entries))
	for i, origEntry := range original.Entries {
		accountIDs = append(accountIDs, origEntry.AccountID)
		flipped := domain.Credit
		if origEntry.EntryType == domain.Credit {
			flipped = domain.Debit
		}
		reversalEntries[i] = domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: reversalID,
			AccountID:     origEntry.AccountID,
			EntryType:     flipped,
			Amount:        origEntry.Amount,
			Notes:         origEntry.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, organizationID, uniqueStrings(accountIDs))
	if err != nil {
		logger.Error("Failed to fetch accounts for reversal balance calculation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get account details for reversal: %w", err)
	}

	balanceChanges := make(map[string]decimal.Decimal)
	for _, entry := range reversalEntries {
		acc, ok := accountsMap[entry.AccountID]
		if !ok {
			logger.Error("Account missing from map during reversal balance calculation", slog.String("account_id", entry.AccountID))
			return nil, fmt.Errorf("internal error: account %s not found during balance calculation", entry.AccountID)
		}
		signedAmount, err := accounting.CalculateSignedAmount(entry, acc.AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signed amount for reversal: %w", err)
		}
		balanceChanges[entry.AccountID] = balanceChanges[entry.AccountID].Add(signedAmount)
	}

	reversal := domain.Transaction{
		TransactionID:         reversalID,
		OrganizationID:        organizationID,
		TransactionType:       original.TransactionType,
		TransactionDate:       transactionDate,
		Description:           fmt.Sprintf("Reversal of: %s", original.Description),
		CurrencyCode:          original.CurrencyCode,
		Status:                domain.Posted,
		OriginalTransactionID: &original.TransactionID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	return &portssvc.PreparedTransaction{
		Transaction:    reversal,
		Entries:        reversalEntries,
		BalanceChanges: balanceChanges,
	}, nil
}

// ReverseTransaction posts the mirror image of an existing transaction. The
// original stays POSTED; both sides record the linkage atomically.
func (s *ledgerService) ReverseTransaction(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*domain.Transaction, error) {
	return s.reverse(ctx, organizationID, transactionID, reversalDate, userID, domain.Posted)
}

// VoidTransaction reverses a transaction and marks the original VOID.
func (s *ledgerService) VoidTransaction(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string) (*domain.Transaction, error) {
	return s.reverse(ctx, organizationID, transactionID, reversalDate, userID, domain.Void)
}

func (s *ledgerService) reverse(ctx context.Context, organizationID string, transactionID string, reversalDate *time.Time, userID string, originalStatus domain.TransactionStatus) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	prepared, err := s.PrepareReversal(ctx, organizationID, transactionID, reversalDate, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction for reversal", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to begin reversal: %w", err)
	}
	defer func() {
		_ = s.ledgerRepo.Rollback(ctx, tx)
	}()

	saved, err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, prepared.Transaction, prepared.Entries, prepared.BalanceChanges)
	if err != nil {
		logger.Error("Failed to save reversing transaction", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reversing transaction: %w", err)
	}

	now := time.Now().UTC()
	if err := s.ledgerRepo.UpdateTransactionStatusAndLinksInTx(ctx, tx, transactionID, originalStatus, &saved.TransactionID, nil, userID, now); err != nil {
		logger.Error("Failed to update original transaction after reversal", slog.String("error", err.Error()), slog.String("original_transaction_id", transactionID))
		return nil, fmt.Errorf("failed to update original transaction: %w", err)
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		logger.Error("Failed to commit reversal", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to commit reversal: %w", err)
	}

	logger.Info("Transaction reversed successfully",
		slog.String("original_transaction_id", transactionID),
		slog.String("reversing_transaction_id", saved.TransactionID),
		slog.String("original_status", string(originalStatus)))
	return saved, nil
}

// RecomputeAccountBalance re-derives an account balance from its posted
// entries. A mismatch against the materialized balance indicates drift and is
// logged loudly.
func (s *ledgerService) RecomputeAccountBalance(ctx context.Context, organizationID string, accountID string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountSvc.GetAccountByID(ctx, organizationID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	sum, err := s.ledgerRepo.SumEntriesByAccountID(ctx, accountID)
	if err != nil {
		logger.Error("Failed to sum entries for account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to recompute balance: %w", err)
	}

	if !sum.Equal(account.Balance) {
		logger.Error("Materialized balance diverges from entry sum",
			slog.String("account_id", accountID),
			slog.String("materialized", account.Balance.String()),
			slog.String("recomputed", sum.String()))
	}

	return sum, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
