package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
)

// adjustmentService posts reconciliation adjustments (bank fees, interest)
// through the ledger and records them on the session atomically.
type adjustmentService struct {
	reconRepo  portsrepo.ReconciliationRepositoryFacade
	ledgerRepo portsrepo.LedgerRepositoryWithTx
	ledgerSvc  portssvc.LedgerSvcFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewAdjustmentService creates a new AdjustmentService.
func NewAdjustmentService(
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
	ledgerSvc portssvc.LedgerSvcFacade,
	accountSvc portssvc.AccountSvcFacade,
) portssvc.AdjustmentSvcFacade {
	return &adjustmentService{
		reconRepo:  reconRepo,
		ledgerRepo: ledgerRepo,
		ledgerSvc:  ledgerSvc,
		accountSvc: accountSvc,
	}
}

var _ portssvc.AdjustmentSvcFacade = (*adjustmentService)(nil)

// CreateAdjustmentEntry posts a balanced adjustment transaction and records it
// on the session as already cleared. The ledger rows and the session update
// commit together under the session's row lock.
//
// A bank fee debits the offset (expense) account and credits the bank account;
// interest earned debits the bank account and credits the offset (income)
// account.
func (s *adjustmentService) CreateAdjustmentEntry(ctx context.Context, organizationID string, reconciliationID string, req dto.CreateAdjustmentRequest, userID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	adjustmentType, err := domain.ParseAdjustmentType(req.AdjustmentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: adjustment amount must be positive", apperrors.ErrValidation)
	}

	var saved *domain.Transaction
	err = s.reconRepo.WithReconciliationLock(ctx, reconciliationID, func(tx pgx.Tx, recon *domain.BankReconciliation) error {
		if recon.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if recon.IsFinalized() {
			return fmt.Errorf("%w: %s", ErrReconciliationFinalized, reconciliationID)
		}

		bankAccount, err := s.accountSvc.GetAccountByID(ctx, organizationID, recon.BankAccountID)
		if err != nil {
			return err
		}
		offsetAccount, err := s.accountSvc.GetAccountByID(ctx, organizationID, req.OffsetAccountID)
		if err != nil {
			return err
		}

		var entries []dto.EntryInput
		switch adjustmentType {
		case domain.AdjustmentBankFee:
			if offsetAccount.AccountType != domain.Expense {
				return fmt.Errorf("%w: bank fee offset account must be an EXPENSE account", apperrors.ErrValidation)
			}
			entries = []dto.EntryInput{
				{AccountID: req.OffsetAccountID, EntryType: domain.Debit, Amount: req.Amount},
				{AccountID: recon.BankAccountID, EntryType: domain.Credit, Amount: req.Amount},
			}
		case domain.AdjustmentInterest:
			if offsetAccount.AccountType != domain.Income {
				return fmt.Errorf("%w: interest offset account must be an INCOME account", apperrors.ErrValidation)
			}
			entries = []dto.EntryInput{
				{AccountID: recon.BankAccountID, EntryType: domain.Debit, Amount: req.Amount},
				{AccountID: req.OffsetAccountID, EntryType: domain.Credit, Amount: req.Amount},
			}
		}

		prepared, err := s.ledgerSvc.PrepareTransaction(ctx, organizationID, domain.AdjustmentTransaction, dto.PostTransactionRequest{
			TransactionDate: req.TransactionDate,
			Description:     req.Description,
			CurrencyCode:    bankAccount.CurrencyCode,
			Entries:         entries,
		}, userID)
		if err != nil {
			return err
		}

		saved, err = s.ledgerRepo.SaveTransactionInTx(ctx, tx, prepared.Transaction, prepared.Entries, prepared.BalanceChanges)
		if err != nil {
			logger.Error("Failed to save adjustment transaction", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
			return fmt.Errorf("failed to save adjustment transaction: %w", err)
		}

		now := time.Now().UTC()
		if err := s.reconRepo.AppendAdjustmentInTx(ctx, tx, reconciliationID, saved.TransactionID, userID, now); err != nil {
			logger.Error("Failed to record adjustment on reconciliation", slog.String("error", err.Error()), slog.String("transaction_id", saved.TransactionID))
			return fmt.Errorf("failed to record adjustment on reconciliation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Adjustment posted",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("transaction_id", saved.TransactionID),
		slog.String("adjustment_type", string(adjustmentType)),
		slog.String("amount", req.Amount.String()))
	return saved, nil
}
