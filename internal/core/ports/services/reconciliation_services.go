package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// ReconciliationReaderSvc defines read operations for reconciliation sessions
type ReconciliationReaderSvc interface {
	// GetReconciliationDetails retrieves a session with live gap figures.
	GetReconciliationDetails(ctx context.Context, organizationID string, reconciliationID string) (*dto.ReconciliationDetailsResponse, error)
}

// ReconciliationWriterSvc defines write operations for reconciliation sessions
type ReconciliationWriterSvc interface {
	// CreateReconciliation opens a session. The opening balance carries over
	// from the account's most recent finalized session.
	CreateReconciliation(ctx context.Context, organizationID string, req dto.CreateReconciliationRequest, userID string) (*domain.BankReconciliation, error)

	// FinalizeReconciliation transitions a session to FINALIZED when its gap
	// is within the configured epsilon. Finalized sessions are immutable.
	FinalizeReconciliation(ctx context.Context, organizationID string, reconciliationID string, userID string) (*domain.BankReconciliation, error)
}

// ReconciliationSvcFacade combines all reconciliation service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationReaderSvc
	ReconciliationWriterSvc
}
