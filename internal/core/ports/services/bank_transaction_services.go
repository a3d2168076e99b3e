package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// BankTransactionSvcFacade defines operations for imported bank-feed lines.
type BankTransactionSvcFacade interface {
	// ImportBankTransaction records one bank-feed line. Re-importing the same
	// bank-side reference for the same account is rejected as a duplicate.
	ImportBankTransaction(ctx context.Context, organizationID string, req dto.ImportBankTransactionRequest, userID string) (*domain.BankTransaction, error)

	// GetBankTransactionByID retrieves a bank transaction by its ID.
	GetBankTransactionByID(ctx context.Context, organizationID string, bankTransactionID string) (*domain.BankTransaction, error)
}
