package services

import (
	"context"
	"errors"
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
	"github.com/finlens/bank_recon_app/internal/utils/accounting"
)

var (
	ErrAlreadyMatched          = errors.New("item is already matched")
	ErrNotMatched              = errors.New("bank transaction is not matched")
	ErrAmountMismatch          = errors.New("payment and bank transaction amounts differ beyond tolerance")
	ErrDirectionMismatch       = errors.New("payment and bank transaction flow in different directions")
	ErrReconciliationFinalized = errors.New("reconciliation is finalized and cannot be modified")
	ErrWrongBankAccount        = errors.New("item does not belong to the reconciliation's bank account")
)

// Reason codes reported per pair from BulkMatch.
const (
	bulkReasonAlreadyMatched    = "ALREADY_MATCHED"
	bulkReasonAmountMismatch    = "AMOUNT_MISMATCH"
	bulkReasonDirectionMismatch = "DIRECTION_MISMATCH"
	bulkReasonNotFound          = "NOT_FOUND"
	bulkReasonWrongBankAccount  = "WRONG_BANK_ACCOUNT"
	bulkReasonInternal          = "INTERNAL"
)

// matchingService pairs payments with imported bank transactions.
type matchingService struct {
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	paymentRepo portsrepo.PaymentRepositoryWithTx
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade

	amountTolerance decimal.Decimal
	dateWindowDays  int
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade,
	amountTolerance decimal.Decimal,
	dateWindowDays int,
) portssvc.MatchingSvcFacade {
	return &matchingService{
		reconRepo:       reconRepo,
		paymentRepo:     paymentRepo,
		bankTxnRepo:     bankTxnRepo,
		amountTolerance: amountTolerance,
		dateWindowDays:  dateWindowDays,
	}
}

var _ portssvc.MatchingSvcFacade = (*matchingService)(nil)

// getReconciliationForOrg fetches a session, treating cross-organization
// access as not found.
func (s *matchingService) getReconciliationForOrg(ctx context.Context, organizationID string, reconciliationID string) (*domain.BankReconciliation, error) {
	recon, err := s.reconRepo.FindReconciliationByID(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}
	if recon.OrganizationID != organizationID {
		return nil, apperrors.ErrNotFound
	}
	return recon, nil
}

// dateDeltaDays is the whole-day distance between two dates.
func dateDeltaDays(a, b time.Time) int {
	delta := a.Truncate(24 * time.Hour).Sub(b.Truncate(24 * time.Hour))
	if delta < 0 {
		delta = -delta
	}
	return int(delta.Hours() / 24)
}

// classify grades one possible pairing, returning false when the pair is not
// a plausible match at all.
func (s *matchingService) classify(bankTxn domain.BankTransaction, payment domain.Payment) (domain.MatchConfidence, bool) {
	if payment.Direction != bankTxn.Direction {
		return "", false
	}
	days := dateDeltaDays(bankTxn.TransactionDate, payment.PaymentDate)
	if payment.Amount.Equal(bankTxn.Amount) {
		if days == 0 {
			return domain.MatchExact, true
		}
		if days <= s.dateWindowDays {
			return domain.MatchAmountOnly, true
		}
		return "", false
	}
	if accounting.WithinTolerance(payment.Amount, bankTxn.Amount, s.amountTolerance) && days <= s.dateWindowDays {
		return domain.MatchWithinTolerance, true
	}
	return "", false
}

// FindMatches suggests the best payment candidate for each unmatched bank
// transaction in the session. Each payment is suggested at most once.
func (s *matchingService) FindMatches(ctx context.Context, organizationID string, reconciliationID string) ([]domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	recon, err := s.getReconciliationForOrg(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, err
	}

	bankTxns, err := s.bankTxnRepo.ListUnmatchedBankTransactions(ctx, organizationID, recon.BankAccountID, recon.StatementDate)
	if err != nil {
		logger.Error("Failed to list unmatched bank transactions", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		return nil, fmt.Errorf("failed to list unmatched bank transactions: %w", err)
	}

	payments, err := s.paymentRepo.ListUnmatchedPayments(ctx, organizationID, recon.BankAccountID, recon.StatementDate)
	if err != nil {
		logger.Error("Failed to list unmatched payments", slog.String("error", err.Error()), slog.String("reconciliation_id", reconciliationID))
		return nil, fmt.Errorf("failed to list unmatched payments: %w", err)
	}

	usedPayments := make(map[string]struct{}, len(payments))
	candidates := make([]domain.MatchCandidate, 0, len(bankTxns))

	for _, bankTxn := range bankTxns {
		var best *domain.MatchCandidate
		for i := range payments {
			payment := payments[i]
			if _, used := usedPayments[payment.PaymentID]; used {
				continue
			}
			confidence, ok := s.classify(bankTxn, payment)
			if !ok {
				continue
			}
			candidate := domain.MatchCandidate{
				BankTransaction: bankTxn,
				Payment:         payment,
				Confidence:      confidence,
				AmountDelta:     payment.Amount.Sub(bankTxn.Amount).Abs(),
				DateDeltaDays:   dateDeltaDays(bankTxn.TransactionDate, payment.PaymentDate),
			}
			if best == nil || betterCandidate(candidate, *best) {
				best = &candidate
			}
		}
		if best != nil {
			usedPayments[best.Payment.PaymentID] = struct{}{}
			candidates = append(candidates, *best)
		}
	}

	logger.Debug("Match candidates computed",
		slog.String("reconciliation_id", reconciliationID),
		slog.Int("bank_transactions", len(bankTxns)),
		slog.Int("candidates", len(candidates)))
	return candidates, nil
}

// betterCandidate orders by confidence rank, then date proximity, then amount
// proximity.
func betterCandidate(a, b domain.MatchCandidate) bool {
	if a.Confidence.Rank() != b.Confidence.Rank() {
		return a.Confidence.Rank() > b.Confidence.Rank()
	}
	if a.DateDeltaDays != b.DateDeltaDays {
		return a.DateDeltaDays < b.DateDeltaDays
	}
	return a.AmountDelta.LessThan(b.AmountDelta)
}

// MatchTransaction confirms one pairing under the session's row lock.
// Retrying an identical pairing is a no-op.
func (s *matchingService) MatchTransaction(ctx context.Context, organizationID string, reconciliationID string, req dto.MatchRequest, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	err := s.reconRepo.WithReconciliationLock(ctx, reconciliationID, func(tx pgx.Tx, recon *domain.BankReconciliation) error {
		if recon.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if recon.IsFinalized() {
			return fmt.Errorf("%w: %s", ErrReconciliationFinalized, reconciliationID)
		}

		bankTxn, err := s.bankTxnRepo.FindBankTransactionByIDForUpdate(ctx, tx, req.BankTransactionID)
		if err != nil {
			return err
		}
		if bankTxn.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if bankTxn.BankAccountID != recon.BankAccountID {
			return fmt.Errorf("%w: bank transaction %s", ErrWrongBankAccount, req.BankTransactionID)
		}

		payment, err := s.paymentRepo.FindPaymentByIDInTx(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if payment.OrganizationID != organizationID {
			return apperrors.ErrNotFound
		}
		if payment.Status == domain.PaymentVoided {
			return fmt.Errorf("%w: payment %s is voided", apperrors.ErrValidation, req.PaymentID)
		}
		if payment.BankAccountID != recon.BankAccountID {
			return fmt.Errorf("%w: payment %s", ErrWrongBankAccount, req.PaymentID)
		}

		// Retrying the same pairing is a no-op
		if bankTxn.MatchedPaymentID != nil && *bankTxn.MatchedPaymentID == payment.PaymentID {
			logger.Debug("Match retry is a no-op", slog.String("bank_transaction_id", req.BankTransactionID), slog.String("payment_id", req.PaymentID))
			return nil
		}
		if bankTxn.IsMatched() {
			return fmt.Errorf("%w: bank transaction %s", ErrAlreadyMatched, req.BankTransactionID)
		}

		existing, err := s.bankTxnRepo.FindMatchForPaymentInTx(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: payment %s", ErrAlreadyMatched, req.PaymentID)
		}

		if payment.Direction != bankTxn.Direction {
			return fmt.Errorf("%w: payment is %s, bank transaction is %s", ErrDirectionMismatch, payment.Direction, bankTxn.Direction)
		}
		if !accounting.WithinTolerance(payment.Amount, bankTxn.Amount, s.amountTolerance) {
			return fmt.Errorf("%w: payment amount %s, bank transaction amount %s, tolerance %s",
				ErrAmountMismatch, payment.Amount.String(), bankTxn.Amount.String(), s.amountTolerance.String())
		}

		now := time.Now().UTC()
		return s.bankTxnRepo.SetMatchedPaymentInTx(ctx, tx, req.BankTransactionID, req.PaymentID, reconciliationID, userID, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Match confirmed",
		slog.String("reconciliation_id", reconciliationID),
		slog.String("bank_transaction_id", req.BankTransactionID),
		slog.String("payment_id", req.PaymentID))
	return nil
}

// UnmatchTransaction undoes a pairing under the lock of the session the
// pairing was made in.
func (s *matchingService) UnmatchTransaction(ctx context.Context, organizationID string, bankTransactionID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	bankTxn, err := s.bankTxnRepo.FindBankTransactionByID(ctx, bankTransactionID)
	if err != nil {
		return err
	}
	if bankTxn.OrganizationID != organizationID {
		return apperrors.ErrNotFound
	}
	if !bankTxn.IsMatched() {
		return fmt.Errorf("%w: %s", ErrNotMatched, bankTransactionID)
	}
	if bankTxn.MatchedReconciliationID == nil {
		logger.Error("Matched bank transaction has no reconciliation recorded", slog.String("bank_transaction_id", bankTransactionID))
		return fmt.Errorf("%w: match state is inconsistent for bank transaction %s", apperrors.ErrInternal, bankTransactionID)
	}

	err = s.reconRepo.WithReconciliationLock(ctx, *bankTxn.MatchedReconciliationID, func(tx pgx.Tx, recon *domain.BankReconciliation) error {
		if recon.IsFinalized() {
			return fmt.Errorf("%w: %s", ErrReconciliationFinalized, recon.ReconciliationID)
		}

		// Re-read under the lock; the match may already be gone
		locked, err := s.bankTxnRepo.FindBankTransactionByIDForUpdate(ctx, tx, bankTransactionID)
		if err != nil {
			return err
		}
		if !locked.IsMatched() {
			return nil
		}

		now := time.Now().UTC()
		return s.bankTxnRepo.ClearMatchedPaymentInTx(ctx, tx, bankTransactionID, userID, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Match undone", slog.String("bank_transaction_id", bankTransactionID))
	return nil
}

// BulkMatch applies pairings in request order, collecting per-pair failures.
// A failed pair never rolls back an earlier successful one.
func (s *matchingService) BulkMatch(ctx context.Context, organizationID string, reconciliationID string, req dto.BulkMatchRequest, userID string) (*domain.BulkMatchResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	recon, err := s.getReconciliationForOrg(ctx, organizationID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if recon.IsFinalized() {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationFinalized, reconciliationID)
	}

	result := &domain.BulkMatchResult{}
	for i, pair := range req.Pairs {
		err := s.MatchTransaction(ctx, organizationID, reconciliationID, dto.MatchRequest{
			PaymentID:         pair.PaymentID,
			BankTransactionID: pair.BankTransactionID,
		}, userID)
		if err != nil {
			result.Errors = append(result.Errors, domain.BulkMatchError{
				Index:             i,
				PaymentID:         pair.PaymentID,
				BankTransactionID: pair.BankTransactionID,
				Reason:            bulkMatchReason(err),
			})
			continue
		}
		result.Matched++
	}

	logger.Info("Bulk match completed",
		slog.String("reconciliation_id", reconciliationID),
		slog.Int("matched", result.Matched),
		slog.Int("failed", len(result.Errors)))
	return result, nil
}

// bulkMatchReason maps a match error to its stable reason code.
func bulkMatchReason(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyMatched):
		return bulkReasonAlreadyMatched
	case errors.Is(err, ErrAmountMismatch):
		return bulkReasonAmountMismatch
	case errors.Is(err, ErrDirectionMismatch):
		return bulkReasonDirectionMismatch
	case errors.Is(err, ErrWrongBankAccount):
		return bulkReasonWrongBankAccount
	case errors.Is(err, apperrors.ErrNotFound):
		return bulkReasonNotFound
	default:
		return bulkReasonInternal
	}
}
