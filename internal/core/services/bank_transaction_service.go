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
)

// bankTransactionService manages imported bank-feed lines.
type bankTransactionService struct {
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
}

// NewBankTransactionService creates a new BankTransactionService.
func NewBankTransactionService(bankTxnRepo portsrepo.BankTransactionRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.BankTransactionSvcFacade {
	return &bankTransactionService{
		bankTxnRepo: bankTxnRepo,
		accountSvc:  accountSvc,
	}
}

var _ portssvc.BankTransactionSvcFacade = (*bankTransactionService)(nil)

// ImportBankTransaction records one bank-feed line. The bank-side reference is
// unique per bank account, so re-importing the same line is rejected.
func (s *bankTransactionService) ImportBankTransaction(ctx context.Context, organizationID string, req dto.ImportBankTransactionRequest, userID string) (*domain.BankTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	bankAccount, err := s.accountSvc.GetAccountByID(ctx, organizationID, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.IsBankAccount {
		return nil, fmt.Errorf("%w: account %s is not a bank account", apperrors.ErrValidation, req.BankAccountID)
	}

	now := time.Now().UTC()
	bankTxn := domain.BankTransaction{
		BankTransactionID: uuid.NewString(),
		OrganizationID:    organizationID,
		BankAccountID:     req.BankAccountID,
		Amount:            req.Amount,
		Direction:         req.Direction,
		TransactionDate:   req.TransactionDate,
		Description:       req.Description,
		Reference:         req.Reference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.bankTxnRepo.SaveBankTransaction(ctx, bankTxn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate bank transaction import rejected", slog.String("reference", req.Reference), slog.String("bank_account_id", req.BankAccountID))
			return nil, fmt.Errorf("%w: reference %s already imported for this bank account", apperrors.ErrDuplicate, req.Reference)
		}
		logger.Error("Failed to save bank transaction", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Bank transaction imported", slog.String("bank_transaction_id", bankTxn.BankTransactionID), slog.String("reference", req.Reference))
	return &bankTxn, nil
}

// GetBankTransactionByID retrieves a bank transaction by its ID.
func (s *bankTransactionService) GetBankTransactionByID(ctx context.Context, organizationID string, bankTransactionID string) (*domain.BankTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankTxn, err := s.bankTxnRepo.FindBankTransactionByID(ctx, bankTransactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find bank transaction by ID", slog.String("error", err.Error()), slog.String("bank_transaction_id", bankTransactionID))
		}
		return nil, err
	}

	if bankTxn.OrganizationID != organizationID {
		// Obscure existence across tenants
		return nil, apperrors.ErrNotFound
	}

	return bankTxn, nil
}
