package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/finlens/bank_recon_app/internal/utils/accounting"
)

var (
	ErrItemClearedElsewhere = errors.New("item is cleared by another finalized reconciliation")
)

// clearingService manages the per-session cleared sets and derives the gap.
type clearingService struct {
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	paymentRepo portsrepo.PaymentRepositoryWithTx
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
}

// NewClearingService creates a new ClearingService.
func NewClearingService(
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
) portssvc.ClearingSvcFacade {
	return &clearingService{
		reconRepo:   reconRepo,
		paymentRepo: paymentRepo,
		bankTxnRepo: bankTxnRepo,
		ledgerRepo:  ledgerRepo,
	}
}

var _ portssvc.ClearingSvcFacade = (*clearingService)(nil)

// collectClearableItems builds the clearing worksheet: payments and bank
// transactions on the session's bank account dated on or before the statement
// date, minus anything a different finalized session already cleared.
func (s *clearingService) collectClearableItems(ctx context.Context, recon *domain.BankReconciliation) ([]domain.ClearableItem, error) {
	payments, err := s.paymentRepo.ListPaymentsForClearing(ctx, recon.OrganizationID, recon.BankAccountID, recon.StatementDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for clearing: %w", err)
	}

	bankTxns, err := s.bankTxnRepo.ListBankTransactionsForClearing(ctx, recon.OrganizationID, recon.BankAccountID, recon.StatementDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions for clearing: %w", err)
	}

	clearedElsewhere, err := s.reconRepo.ListItemIDsClearedElsewhere(ctx, recon.OrganizationID, recon.BankAccountID, recon.ReconciliationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items cleared elsewhere: %w", err)
	}

	items := make([]domain.ClearableItem, 0, len(payments)+len(bankTxns))
	for _, p := range payments {
		if _, taken := clearedElsewhere[p.PaymentID]; taken {
			continue
		}
		items = append(items, domain.ClearableItem{
			ItemID:      p.PaymentID,
			ItemType:    domain.ClearablePayment,
			Date:        p.PaymentDate,
			Description: p.Reference,
			Amount:      p.Amount,
			Direction:   p.Direction,
			IsCleared:   recon.IsPaymentCleared(p.PaymentID),
		})
	}
	for _, bt := range bankTxns {
		if _, taken := clearedElsewhere[bt.BankTransactionID]; taken {
			continue
		}
		items = append(items, domain.ClearableItem{
			ItemID:      bt.BankTransactionID,
			ItemType:    domain.ClearableBankTxn,
			Date:        bt.TransactionDate,
			Description: bt.Description,
			Amount:      bt.Amount,
			Direction:   bt.Direction,
			IsCleared:   recon.IsTransactionCleared(bt.BankTransactionID),
		})
	}
	return items, nil
}

// buildAdjustmentItems converts each posted adjustment into a worksheet item
// from its bank-account leg: a debit on the bank asset account is an inflow,
// a credit an outflow. Adjustments are cleared the moment they are posted.
func (s *clearingService) buildAdjustmentItems(ctx context.Context, recon *domain.BankReconciliation) ([]domain.ClearableItem, error) {
	items := make([]domain.ClearableItem, 0, len(recon.AdjustmentEntryIDs))
	for _, txnID := range recon.AdjustmentEntryIDs {
		txn, err := s.ledgerRepo.FindTransactionByID(ctx, txnID)
		if err != nil {
			return nil, fmt.Errorf("failed to load adjustment transaction %s: %w", txnID, err)
		}
		if txn.Status == domain.Void {
			continue
		}
		entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, txnID)
		if err != nil {
			return nil, fmt.Errorf("failed to load adjustment entries for %s: %w", txnID, err)
		}
		for _, entry := range entries {
			if entry.AccountID != recon.BankAccountID {
				continue
			}
			direction := domain.Outflow
			if entry.EntryType == domain.Debit {
				direction = domain.Inflow
			}
			items = append(items, domain.ClearableItem{
				ItemID:      txnID,
				ItemType:    domain.ClearableBankTxn,
				Date:        txn.TransactionDate,
				Description: txn.Description,
				Amount:      entry.Amount,
				Direction:   direction,
				IsCleared:   recon.IsTransactionCleared(txnID),
			})
		}
	}
	return items, nil
}

// ComputeGap re-derives the session's expected balance and gap from its
// cleared worksheet items and adjustments.
func (s *clearingService) ComputeGap(ctx context.Context, recon *domain.BankReconciliation) (*domain.ReconciliationGap, error) {
	items, err := s.collectClearableItems(ctx, recon)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.buildAdjustmentItems(ctx, recon)
	if err != nil {
		return nil, err
	}

	gap := accounting.CalculateReconciliationGap(recon.OpeningBalance, recon.StatementBalance, append(items, adjustments...))
	return &gap, nil
}

// GetClearableItems lists the session's clearing worksheet with live gap figures.
func (s *clearingService) GetClearableItems(ctx context.Context, organizationID string, reconciliationID string) (*dto.ClearableItemsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	recon, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if recon.OrganizationID != organizationID {
		return nil, apperrors.ErrNotFound
	}

	items, err := s.collectClearableItems(ctx, recon)
	if err != nil {
		logger.Error("Failed to collect clearable items", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		return nil, err
	}
	adjustments, err := s.buildAdjustmentItems(ctx, recon)
	if err != nil {
		logger.Error("Failed to build adjustment items", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		return nil, err
	}

	gap := accounting.CalculateReconciliationGap(recon.OpeningBalance, recon.StatementBalance, append(slices.Clone(items), adjustments...))

	return &dto.ClearableItemsResponse{
		Items:           dto.ToClearableItemResponses(items),
		ExpectedBalance: gap.ExpectedBalance,
		Gap:             gap.Gap,
	}, nil
}

// ToggleClear sets or unsets one item's cleared flag under the session's row
// lock. Toggling to the state the item is already in is a no-op.
func (s *clearingService) ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	itemType, err := domain.ParseClearableItemType(req.ItemType)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.IsCleared == nil {
		return fmt.Errorf("%w: isCleared is required", apperrors.ErrValidation)
	}
	wantCleared := *req.IsCleared

	err = s.reconRepo.WithReconciliationLock(ctx, reconciliationID, func(tx pgx.Tx, recon *domain.BankReconciliation) error {
		if recon.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if recon.IsFinalized() {
			return fmt.Errorf("%w: %s", ErrReconciliationFinalized, reconciliationID)
		}

		if err := s.validateClearTarget(ctx, recon, itemType, req.ItemID); err != nil {
			return err
		}

		if wantCleared {
			clearedElsewhere, err := s.reconRepo.ListItemIDsClearedElsewhere(ctx, recon.OrganizationID, recon.BankAccountID, recon.ReconciliationID)
			if err != nil {
				return fmt.Errorf("failed to list items cleared elsewhere: %w", err)
			}
			if _, taken := clearedElsewhere[req.ItemID]; taken {
				return fmt.Errorf("%w: %s", ErrItemClearedElsewhere, req.ItemID)
			}
		}

		clearedPayments := slices.Clone(recon.ClearedPaymentIDs)
		clearedTransactions := slices.Clone(recon.ClearedTransactionIDs)
		var changed bool
		switch itemType {
		case domain.ClearablePayment:
			clearedPayments, changed = toggleSetMembership(clearedPayments, req.ItemID, wantCleared)
		case domain.ClearableBankTxn:
			clearedTransactions, changed = toggleSetMembership(clearedTransactions, req.ItemID, wantCleared)
		}
		if !changed {
			return nil
		}

		now := time.Now().UTC()
		return s.reconRepo.UpdateClearedSetsInTx(ctx, tx, reconciliationID, clearedPayments, clearedTransactions, userID, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Clear flag toggled",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("item_id", req.ItemID),
		slog.String("item_type", string(itemType)),
		slog.Bool("is_cleared", wantCleared))
	return nil
}

// validateClearTarget checks the item exists, belongs to the organization and
// the session's bank account, and is in a clearable state.
func (s *clearingService) validateClearTarget(ctx context.Context, recon *domain.BankReconciliation, itemType domain.ClearableItemType, itemID string) error {
	// Adjustment entries are cleared by construction when posted and are
	// never toggled by hand.
	if slices.Contains(recon.AdjustmentEntryIDs, itemID) {
		return fmt.Errorf("%w: adjustment %s is cleared on creation and cannot be toggled", apperrors.ErrValidation, itemID)
	}

	switch itemType {
	case domain.ClearablePayment:
		payment, err := s.paymentRepo.FindPaymentByID(ctx, itemID)
		if err != nil {
			return err
		}
		if payment.OrganizationID != recon.OrganizationID {
			return apperrors.ErrNotFound
		}
		if payment.BankAccountID != recon.BankAccountID {
			return fmt.Errorf("%w: payment %s", ErrWrongBankAccount, itemID)
		}
		if payment.Status == domain.PaymentVoided {
			return fmt.Errorf("%w: payment %s is voided", apperrors.ErrValidation, itemID)
		}
	case domain.ClearableBankTxn:
		bankTxn, err := s.bankTxnRepo.FindBankTransactionByID(ctx, itemID)
		if err != nil {
			return err
		}
		if bankTxn.OrganizationID != recon.OrganizationID {
			return apperrors.ErrNotFound
		}
		if bankTxn.BankAccountID != recon.BankAccountID {
			return fmt.Errorf("%w: bank transaction %s", ErrWrongBankAccount, itemID)
		}
	}
	return nil
}

// toggleSetMembership adds or removes id, reporting whether the set changed.
func toggleSetMembership(set []string, id string, want bool) ([]string, bool) {
	has := slices.Contains(set, id)
	if want == has {
		return set, false
	}
	if want {
		return append(set, id), true
	}
	return slices.DeleteFunc(set, func(s string) bool { return s == id }), true
}
