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

var (
	ErrPaymentAlreadyVoided          = errors.New("payment is already voided")
	ErrPaymentLockedByReconciliation = errors.New("payment is locked by a finalized reconciliation")
	ErrNotBankAccount                = errors.New("account is not a bank account")
)

// paymentService records payments, allocates them to invoices, and voids them.
type paymentService struct {
	paymentRepo portsrepo.PaymentRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	ledgerSvc   portssvc.LedgerSvcFacade
	accountSvc  portssvc.AccountSvcFacade
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	bankTxnRepo portsrepo.BankTransactionRepositoryFacade,
	reconRepo portsrepo.ReconciliationRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	accountSvc portssvc.AccountSvcFacade,
) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo: paymentRepo,
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		bankTxnRepo: bankTxnRepo,
		reconRepo:   reconRepo,
		ledgerSvc:   ledgerSvc,
		accountSvc:  accountSvc,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// GetPaymentByID retrieves a payment with its allocations.
func (s *paymentService) GetPaymentByID(ctx context.Context, organizationID string, paymentID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find payment by ID", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		}
		return nil, err
	}

	if payment.OrganizationID != organizationID {
		// Obscure existence across tenants
		return nil, apperrors.ErrNotFound
	}

	return payment, nil
}

// CreatePayment records a payment, posts its ledger transaction, and
// optionally allocates it against outstanding invoices oldest-first. The
// ledger rows, the payment row and the allocations commit or roll back as one.
func (s *paymentService) CreatePayment(ctx context.Context, organizationID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}

	bankAccount, err := s.accountSvc.GetAccountByID(ctx, organizationID, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.IsBankAccount {
		return nil, fmt.Errorf("%w: %s", ErrNotBankAccount, req.BankAccountID)
	}

	// An inflow debits the bank account and credits the counterpart account;
	// an outflow mirrors that.
	var entries []dto.EntryInput
	if req.Direction == domain.Inflow {
		entries = []dto.EntryInput{
			{AccountID: req.BankAccountID, EntryType: domain.Debit, Amount: req.Amount},
			{AccountID: req.CounterpartAccountID, EntryType: domain.Credit, Amount: req.Amount},
		}
	} else {
		entries = []dto.EntryInput{
			{AccountID: req.CounterpartAccountID, EntryType: domain.Debit, Amount: req.Amount},
			{AccountID: req.BankAccountID, EntryType: domain.Credit, Amount: req.Amount},
		}
	}

	description := fmt.Sprintf("Payment %s", req.Reference)
	if req.Reference == "" {
		description = "Payment"
	}

	prepared, err := s.ledgerSvc.PrepareTransaction(ctx, organizationID, domain.PaymentTransaction, dto.PostTransactionRequest{
		TransactionDate: req.PaymentDate,
		Description:     description,
		CurrencyCode:    bankAccount.CurrencyCode,
		Entries:         entries,
	}, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:      uuid.NewString(),
		OrganizationID: organizationID,
		BankAccountID:  req.BankAccountID,
		Amount:         req.Amount,
		Direction:      req.Direction,
		PaymentDate:    req.PaymentDate,
		Reference:      req.Reference,
		Status:         domain.PaymentUnapplied,
		TransactionID:  &prepared.Transaction.TransactionID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	// Build allocations before opening the database transaction so the writes
	// below stay short.
	var allocations []domain.PaymentAllocation
	if req.AutoAllocate && req.Direction == domain.Inflow {
		allocations, err = s.buildAllocations(ctx, organizationID, &payment, now, userID)
		if err != nil {
			return nil, err
		}
		payment.Status = allocationStatus(payment.Amount, allocations)
	}

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction for payment creation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to begin payment creation: %w", err)
	}
	defer func() {
		_ = s.paymentRepo.Rollback(ctx, tx)
	}()

	savedTxn, err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, prepared.Transaction, prepared.Entries, prepared.BalanceChanges)
	if err != nil {
		logger.Error("Failed to save payment ledger transaction", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save payment transaction: %w", err)
	}

	if err := s.paymentRepo.SavePaymentInTx(ctx, tx, payment); err != nil {
		logger.Error("Failed to save payment", slog.String("error", err.Error()), slog.String("payment_id", payment.PaymentID))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if len(allocations) > 0 {
		if err := s.paymentRepo.SaveAllocationsInTx(ctx, tx, allocations); err != nil {
			logger.Error("Failed to save payment allocations", slog.String("error", err.Error()), slog.String("payment_id", payment.PaymentID))
			return nil, fmt.Errorf("failed to save allocations: %w", err)
		}
		for _, alloc := range allocations {
			if err := s.invoiceRepo.ApplyPaymentInTx(ctx, tx, alloc.InvoiceID, alloc.Amount, userID, now); err != nil {
				logger.Error("Failed to apply payment to invoice", slog.String("error", err.Error()), slog.String("invoice_id", alloc.InvoiceID))
				return nil, fmt.Errorf("failed to apply payment to invoice %s: %w", alloc.InvoiceID, err)
			}
		}
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		logger.Error("Failed to commit payment creation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to commit payment creation: %w", err)
	}

	payment.Allocations = allocations
	logger.Info("Payment created successfully",
		slog.String("payment_id", payment.PaymentID),
		slog.String("transaction_id", savedTxn.TransactionID),
		slog.Int("allocation_count", len(allocations)))
	return &payment, nil
}

// buildAllocations walks outstanding invoices oldest-first, applying the
// payment until either the payment or the invoices run out.
func (s *paymentService) buildAllocations(ctx context.Context, organizationID string, payment *domain.Payment, now time.Time, userID string) ([]domain.PaymentAllocation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	invoices, err := s.invoiceRepo.ListOutstandingInvoices(ctx, organizationID)
	if err != nil {
		logger.Error("Failed to list outstanding invoices for allocation", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list outstanding invoices: %w", err)
	}

	remaining := payment.Amount
	var allocations []domain.PaymentAllocation
	for _, invoice := range invoices {
		if remaining.IsZero() {
			break
		}
		applied := decimal.Min(remaining, invoice.Balance)
		if applied.LessThanOrEqual(decimal.Zero) {
			continue
		}
		allocations = append(allocations, domain.PaymentAllocation{
			AllocationID: uuid.NewString(),
			PaymentID:    payment.PaymentID,
			InvoiceID:    invoice.InvoiceID,
			Amount:       applied,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
		remaining = remaining.Sub(applied)
	}
	return allocations, nil
}

// allocationStatus derives the payment status from its allocations.
func allocationStatus(amount decimal.Decimal, allocations []domain.PaymentAllocation) domain.PaymentStatus {
	if len(allocations) == 0 {
		return domain.PaymentUnapplied
	}
	allocated := decimal.Zero
	for _, a := range allocations {
		allocated = allocated.Add(a.Amount)
	}
	if allocated.Equal(amount) {
		return domain.PaymentApplied
	}
	return domain.PaymentPartiallyApplied
}

// VoidPayment reverses the payment's ledger transaction, releases its
// allocations and any bank-transaction match, and marks it VOIDED, all in one
// database transaction. Payments locked by a finalized reconciliation are
// immutable.
func (s *paymentService) VoidPayment(ctx context.Context, organizationID string, paymentID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	payment, err := s.GetPaymentByID(ctx, organizationID, paymentID)
	if err != nil {
		return err
	}
	if payment.Status == domain.PaymentVoided {
		return fmt.Errorf("%w: payment %s", ErrPaymentAlreadyVoided, paymentID)
	}

	locked, err := s.reconRepo.IsPaymentLockedByFinalized(ctx, paymentID)
	if err != nil {
		logger.Error("Failed to check reconciliation lock for payment", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to check reconciliation lock: %w", err)
	}
	if locked {
		logger.Warn("Void rejected: payment locked by finalized reconciliation", slog.String("payment_id", paymentID))
		return fmt.Errorf("%w: payment %s", ErrPaymentLockedByReconciliation, paymentID)
	}

	var prepared *portssvc.PreparedTransaction
	if payment.TransactionID != nil {
		prepared, err = s.ledgerSvc.PrepareReversal(ctx, organizationID, *payment.TransactionID, nil, userID)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()

	tx, err := s.paymentRepo.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction for payment void", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin payment void: %w", err)
	}
	defer func() {
		_ = s.paymentRepo.Rollback(ctx, tx)
	}()

	// Release any bank-transaction match
	matchedBankTxn, err := s.bankTxnRepo.FindMatchForPaymentInTx(ctx, tx, paymentID)
	if err != nil {
		logger.Error("Failed to look up bank transaction match for payment", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to look up match: %w", err)
	}
	if matchedBankTxn != nil {
		if err := s.bankTxnRepo.ClearMatchedPaymentInTx(ctx, tx, matchedBankTxn.BankTransactionID, userID, now); err != nil {
			logger.Error("Failed to clear bank transaction match", slog.String("error", err.Error()), slog.String("bank_transaction_id", matchedBankTxn.BankTransactionID))
			return fmt.Errorf("failed to clear match: %w", err)
		}
	}

	// Release invoice allocations
	for _, alloc := range payment.Allocations {
		if err := s.invoiceRepo.UnapplyPaymentInTx(ctx, tx, alloc.InvoiceID, alloc.Amount, userID, now); err != nil {
			logger.Error("Failed to unapply payment from invoice", slog.String("error", err.Error()), slog.String("invoice_id", alloc.InvoiceID))
			return fmt.Errorf("failed to unapply payment from invoice %s: %w", alloc.InvoiceID, err)
		}
	}
	if err := s.paymentRepo.DeleteAllocationsInTx(ctx, tx, paymentID); err != nil {
		logger.Error("Failed to delete payment allocations", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to delete allocations: %w", err)
	}

	// Reverse the ledger transaction and mark the original VOID
	if prepared != nil {
		saved, err := s.ledgerRepo.SaveTransactionInTx(ctx, tx, prepared.Transaction, prepared.Entries, prepared.BalanceChanges)
		if err != nil {
			logger.Error("Failed to save voiding transaction", slog.String("error", err.Error()))
			return fmt.Errorf("failed to save voiding transaction: %w", err)
		}
		if err := s.ledgerRepo.UpdateTransactionStatusAndLinksInTx(ctx, tx, *payment.TransactionID, domain.Void, &saved.TransactionID, nil, userID, now); err != nil {
			logger.Error("Failed to void original payment transaction", slog.String("error", err.Error()))
			return fmt.Errorf("failed to void payment transaction: %w", err)
		}
	}

	if err := s.paymentRepo.UpdatePaymentStatusInTx(ctx, tx, paymentID, domain.PaymentVoided, userID, now); err != nil {
		logger.Error("Failed to update payment status to voided", slog.String("error", err.Error()), slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if err := s.paymentRepo.Commit(ctx, tx); err != nil {
		logger.Error("Failed to commit payment void", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit payment void: %w", err)
	}

	logger.Info("Payment voided successfully", slog.String("payment_id", paymentID))
	return nil
}
