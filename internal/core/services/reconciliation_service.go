package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/domain"
	portsrepo "github.com/finlens/bank_recon_app/internal/core/ports/repositories"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
)

var (
	ErrGapNotZero = errors.New("reconciliation gap is not zero")
)

// reconciliationService manages the session lifecycle from open to finalized.
type reconciliationService struct {
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
	clearingSvc portssvc.ClearingSvcFacade
	matchingSvc portssvc.MatchingSvcFacade

	gapEpsilon decimal.Decimal
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	clearingSvc portssvc.ClearingSvcFacade,
	matchingSvc portssvc.MatchingSvcFacade,
	gapEpsilon decimal.Decimal,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconRepo:   reconRepo,
		accountSvc:  accountSvc,
		clearingSvc: clearingSvc,
		matchingSvc: matchingSvc,
		gapEpsilon:  gapEpsilon,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// CreateReconciliation opens a session against a bank account and statement.
// The opening balance carries over from the account's most recent finalized
// session; a never-reconciled account starts from its ledger balance.
func (s *reconciliationService) CreateReconciliation(ctx context.Context, organizationID string, req dto.CreateReconciliationRequest, userID string) (*domain.BankReconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankAccount, err := s.accountSvc.GetAccountByID(ctx, organizationID, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.IsBankAccount {
		return nil, fmt.Errorf("%w: %s", ErrNotBankAccount, req.BankAccountID)
	}
	if !bankAccount.IsActive {
		return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, req.BankAccountID)
	}

	openingBalance := bankAccount.Balance
	latest, err := s.reconRepo.FindLatestFinalized(ctx, organizationID, req.BankAccountID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to look up latest finalized reconciliation", slog.String("error", err.Error()), slog.String("bank_account_id", req.BankAccountID))
		return nil, fmt.Errorf("failed to look up latest finalized reconciliation: %w", err)
	}
	if latest != nil {
		if !req.StatementDate.After(latest.StatementDate) {
			return nil, fmt.Errorf("%w: statement date must be after the last finalized statement (%s)",
				apperrors.ErrValidation, latest.StatementDate.Format("2006-01-02"))
		}
		openingBalance = latest.StatementBalance
	}

	now := time.Now().UTC()
	recon := domain.BankReconciliation{
		ReconciliationID:      uuid.NewString(),
		OrganizationID:        organizationID,
		BankAccountID:         req.BankAccountID,
		StatementDate:         req.StatementDate,
		StatementBalance:      req.StatementBalance,
		OpeningBalance:        openingBalance,
		Status:                domain.ReconciliationInProgress,
		ClearedPaymentIDs:     []string{},
		ClearedTransactionIDs: []string{},
		AdjustmentEntryIDs:    []string{},
		Version:               1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.reconRepo.SaveReconciliation(ctx, recon); err != nil {
		logger.Error("Failed to save reconciliation", slog.String("error", err.Error()), slog.String("reconciliation_id", recon.ReconciliationID))
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	logger.Info("Reconciliation opened",
		slog.String("reconciliation_id", recon.ReconciliationID),
		slog.String("bank_account_id", req.BankAccountID),
		slog.String("opening_balance", openingBalance.String()))
	return &recon, nil
}

// GetReconciliationDetails retrieves a session with its live gap figures.
func (s *reconciliationService) GetReconciliationDetails(ctx context.Context, organizationID string, reconciliationID string) (*dto.ReconciliationDetailsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	recon, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find reconciliation by ID", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		}
		return nil, err
	}
	if recon.OrganizationID != organizationID {
		// Obscure existence across tenants
		return nil, apperrors.ErrNotFound
	}

	worksheet, err := s.clearingSvc.GetClearableItems(ctx, organizationID, reconciliationID)
	if err != nil {
		logger.Error("Failed to build clearing worksheet", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		return nil, err
	}

	// Suggestions only make sense while the session is still open.
	candidates := []domain.MatchCandidate{}
	if !recon.IsFinalized() {
		candidates, err = s.matchingSvc.FindMatches(ctx, organizationID, reconciliationID)
		if err != nil {
			logger.Error("Failed to find match candidates", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
			return nil, err
		}
	}

	return &dto.ReconciliationDetailsResponse{
		Reconciliation:  dto.ToReconciliationResponse(recon),
		Items:           worksheet.Items,
		Candidates:      dto.ToMatchCandidateResponses(candidates),
		ExpectedBalance: worksheet.ExpectedBalance,
		Gap:             worksheet.Gap,
	}, nil
}

// FinalizeReconciliation transitions a session to FINALIZED under its row
// lock. The gap must be within the configured epsilon; a finalized session
// and its cleared sets are permanently immutable afterwards.
func (s *reconciliationService) FinalizeReconciliation(ctx context.Context, organizationID string, reconciliationID string, userID string) (*domain.BankReconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var finalized *domain.BankReconciliation
	err := s.reconRepo.WithReconciliationLock(ctx, reconciliationID, func(tx pgx.Tx, recon *domain.BankReconciliation) error {
		if recon.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if recon.IsFinalized() {
			return fmt.Errorf("%w: %s", ErrReconciliationFinalized, reconciliationID)
		}

		gap, err := s.clearingSvc.ComputeGap(ctx, recon)
		if err != nil {
			return err
		}
		if gap.Gap.Abs().GreaterThan(s.gapEpsilon) {
			logger.Warn("Finalize rejected: gap outside epsilon",
				slog.String("reconciliation_id", reconciliationID),
				slog.String("gap", gap.Gap.String()),
				slog.String("epsilon", s.gapEpsilon.String()))
			return fmt.Errorf("%w: gap is %s", ErrGapNotZero, gap.Gap.String())
		}

		now := time.Now().UTC()
		if err := s.reconRepo.FinalizeInTx(ctx, tx, reconciliationID, recon.Version, userID, now); err != nil {
			logger.Error("Failed to finalize reconciliation", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
			return err
		}

		result := *recon
		result.Status = domain.ReconciliationFinalized
		result.FinalizedAt = &now
		result.FinalizedBy = &userID
		result.Version = recon.Version + 1
		result.LastUpdatedAt = now
		result.LastUpdatedBy = userID
		finalized = &result
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Reconciliation finalized", slog.String("reconciliation_id", reconciliationID))
	return finalized, nil
}
