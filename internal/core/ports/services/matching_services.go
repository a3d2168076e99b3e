package services

import (
	"context"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/finlens/bank_recon_app/internal/dto"
)

// MatchingSvcFacade defines operations for pairing payments with bank transactions.
type MatchingSvcFacade interface {
	// FindMatches suggests payment candidates for the session's unmatched bank
	// transactions, ranked EXACT > AMOUNT_ONLY > WITHIN_TOLERANCE. Each
	// payment is suggested at most once.
	FindMatches(ctx context.Context, organizationID string, reconciliationID string) ([]domain.MatchCandidate, error)

	// MatchTransaction confirms one pairing. Retrying an identical pairing is
	// a no-op; pairing either side twice with different partners is rejected.
	MatchTransaction(ctx context.Context, organizationID string, reconciliationID string, req dto.MatchRequest, userID string) error

	// UnmatchTransaction undoes a pairing. Finalized sessions reject this.
	UnmatchTransaction(ctx context.Context, organizationID string, bankTransactionID string, userID string) error

	// BulkMatch applies several pairings in order, collecting per-pair
	// failures instead of aborting the batch.
	BulkMatch(ctx context.Context, organizationID string, reconciliationID string, req dto.BulkMatchRequest, userID string) (*domain.BulkMatchResult, error)
}
