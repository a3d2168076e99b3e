package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// ClearingSvcFacade defines operations on a session's clearing worksheet.
type ClearingSvcFacade interface {
	// GetClearableItems lists payments and bank transactions eligible for
	// clearing in the session, with live gap figures.
	GetClearableItems(ctx context.Context, organizationID string, reconciliationID string) (*dto.ClearableItemsResponse, error)

	// ToggleClear sets or unsets one item's cleared flag. Finalized sessions
	// reject this; items cleared by another finalized session are ineligible.
	ToggleClear(ctx context.Context, organizationID string, reconciliationID string, req dto.ToggleClearRequest, userID string) error

	// ComputeGap re-derives the session's expected balance and gap from its
	// cleared items and adjustments.
	ComputeGap(ctx context.Context, recon *domain.BankReconciliation) (*domain.ReconciliationGap, error)
}
