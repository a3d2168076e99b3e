package dto

import (
	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MatchRequest defines the data needed to pair one payment with one bank transaction.
type MatchRequest struct {
	PaymentID         string `json:"paymentID" binding:"required"`
	BankTransactionID string `json:"bankTransactionID" binding:"required"`
}

// UnmatchRequest defines the data needed to undo a pairing.
type UnmatchRequest struct {
	BankTransactionID string `json:"bankTransactionID" binding:"required"`
}

// MatchCandidateResponse defines one suggested pairing.
type MatchCandidateResponse struct {
	BankTransaction BankTransactionResponse `json:"bankTransaction"`
	Payment         PaymentResponse         `json:"payment"`
	Confidence      domain.MatchConfidence  `json:"confidence"`
	AmountDelta     decimal.Decimal         `json:"amountDelta"`
	DateDeltaDays   int                     `json:"dateDeltaDays"`
}

// ToMatchCandidateResponses converts a slice of domain.MatchCandidate to []MatchCandidateResponse.
func ToMatchCandidateResponses(candidates []domain.MatchCandidate) []MatchCandidateResponse {
	responses := make([]MatchCandidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = MatchCandidateResponse{
			BankTransaction: ToBankTransactionResponse(&c.BankTransaction),
			Payment:         ToPaymentResponse(&c.Payment),
			Confidence:      c.Confidence,
			AmountDelta:     c.AmountDelta,
			DateDeltaDays:   c.DateDeltaDays,
		}
	}
	return responses
}

// FindMatchesResponse wraps the suggested pairings for a session.
type FindMatchesResponse struct {
	Candidates []MatchCandidateResponse `json:"candidates"`
}

// BulkMatchPair is one pairing within a bulk match request.
type BulkMatchPair struct {
	PaymentID         string `json:"paymentID" binding:"required"`
	BankTransactionID string `json:"bankTransactionID" binding:"required"`
}

// BulkMatchRequest defines the data needed to confirm several pairings at once.
type BulkMatchRequest struct {
	Pairs []BulkMatchPair `json:"pairs" binding:"required,min=1,dive"`
}

// BulkMatchErrorDetail describes one pairing that could not be applied.
type BulkMatchErrorDetail struct {
	Index             int    `json:"index"`
	PaymentID         string `json:"paymentID"`
	BankTransactionID string `json:"bankTransactionID"`
	Reason            string `json:"reason"`
}

// BulkMatchResponse summarises the outcome of a bulk match.
type BulkMatchResponse struct {
	Matched int                    `json:"matched"`
	Errors  []BulkMatchErrorDetail `json:"errors"`
}

// ToBulkMatchResponse converts a domain.BulkMatchResult to BulkMatchResponse DTO.
func ToBulkMatchResponse(result *domain.BulkMatchResult) BulkMatchResponse {
	errs := make([]BulkMatchErrorDetail, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = BulkMatchErrorDetail{
			Index:             e.Index,
			PaymentID:         e.PaymentID,
			BankTransactionID: e.BankTransactionID,
			Reason:            e.Reason,
		}
	}
	return BulkMatchResponse{Matched: result.Matched, Errors: errs}
}
