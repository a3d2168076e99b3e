package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// AdjustmentSvcFacade defines operations for reconciliation adjustments.
type AdjustmentSvcFacade interface {
	// CreateAdjustmentEntry posts a balanced adjustment transaction (bank fee
	// or interest earned) and records it on the session as already cleared,
	// all atomically.
	CreateAdjustmentEntry(ctx context.Context, organizationID string, reconciliationID string, req dto.CreateAdjustmentRequest, userID string) (*domain.Transaction, error)
}
