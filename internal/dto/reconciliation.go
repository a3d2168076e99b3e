package dto

import (
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateReconciliationRequest defines the data needed to open a reconciliation session.
type CreateReconciliationRequest struct {
	BankAccountID    string          `json:"bankAccountID" binding:"required"`
	StatementDate    time.Time       `json:"statementDate" binding:"required"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
}

// ReconciliationResponse defines the data returned for a reconciliation session.
type ReconciliationResponse struct {
	ReconciliationID      string                      `json:"reconciliationID"`
	BankAccountID         string                      `json:"bankAccountID"`
	StatementDate         time.Time                   `json:"statementDate"`
	StatementBalance      decimal.Decimal             `json:"statementBalance"`
	OpeningBalance        decimal.Decimal             `json:"openingBalance"`
	Status                domain.ReconciliationStatus `json:"status"`
	ClearedPaymentIDs     []string                    `json:"clearedPaymentIDs"`
	ClearedTransactionIDs []string                    `json:"clearedTransactionIDs"`
	AdjustmentEntryIDs    []string                    `json:"adjustmentEntryIDs"`
	FinalizedAt           *time.Time                  `json:"finalizedAt,omitempty"`
	FinalizedBy           *string                     `json:"finalizedBy,omitempty"`
	CreatedAt             time.Time                   `json:"createdAt"`
	CreatedBy             string                      `json:"createdBy"`
}

// ReconciliationDetailsResponse combines a session with its clearing
// worksheet, match suggestions and live gap figures.
type ReconciliationDetailsResponse struct {
	Reconciliation  ReconciliationResponse   `json:"reconciliation"`
	Items           []ClearableItemResponse  `json:"items"`
	Candidates      []MatchCandidateResponse `json:"candidates"`
	ExpectedBalance decimal.Decimal          `json:"expectedBalance"`
	Gap             decimal.Decimal          `json:"gap"`
}

// ToReconciliationResponse converts a domain.BankReconciliation to ReconciliationResponse DTO.
func ToReconciliationResponse(r *domain.BankReconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ReconciliationID:      r.ReconciliationID,
		BankAccountID:         r.BankAccountID,
		StatementDate:         r.StatementDate,
		StatementBalance:      r.StatementBalance,
		OpeningBalance:        r.OpeningBalance,
		Status:                r.Status,
		ClearedPaymentIDs:     r.ClearedPaymentIDs,
		ClearedTransactionIDs: r.ClearedTransactionIDs,
		AdjustmentEntryIDs:    r.AdjustmentEntryIDs,
		FinalizedAt:           r.FinalizedAt,
		FinalizedBy:           r.FinalizedBy,
		CreatedAt:             r.CreatedAt,
		CreatedBy:             r.CreatedBy,
	}
}

// ToggleClearRequest defines the data needed to clear or unclear one item.
type ToggleClearRequest struct {
	ItemID   string `json:"itemID" binding:"required"`
	ItemType string `json:"itemType" binding:"required,oneof=PAYMENT BANK_TXN"`
	// IsCleared is a pointer so that an explicit false survives binding.
	IsCleared *bool `json:"isCleared" binding:"required"`
}

// ClearableItemResponse defines one line of the clearing worksheet.
type ClearableItemResponse struct {
	ItemID      string                   `json:"itemID"`
	ItemType    domain.ClearableItemType `json:"itemType"`
	Date        time.Time                `json:"date"`
	Description string                   `json:"description"`
	Amount      decimal.Decimal          `json:"amount"`
	Direction   domain.FlowDirection     `json:"direction"`
	IsCleared   bool                     `json:"isCleared"`
}

// ToClearableItemResponses converts a slice of domain.ClearableItem to []ClearableItemResponse.
func ToClearableItemResponses(items []domain.ClearableItem) []ClearableItemResponse {
	responses := make([]ClearableItemResponse, len(items))
	for i, item := range items {
		responses[i] = ClearableItemResponse{
			ItemID:      item.ItemID,
			ItemType:    item.ItemType,
			Date:        item.Date,
			Description: item.Description,
			Amount:      item.Amount,
			Direction:   item.Direction,
			IsCleared:   item.IsCleared,
		}
	}
	return responses
}

// ClearableItemsResponse wraps the clearing worksheet with its gap figures.
type ClearableItemsResponse struct {
	Items           []ClearableItemResponse `json:"items"`
	ExpectedBalance decimal.Decimal         `json:"expectedBalance"`
	Gap             decimal.Decimal         `json:"gap"`
}

// CreateAdjustmentRequest defines the data needed to post a reconciliation adjustment.
type CreateAdjustmentRequest struct {
	AdjustmentType  string          `json:"adjustmentType" binding:"required,oneof=BANK_FEE INTEREST_EARNED"`
	TransactionDate time.Time       `json:"transactionDate" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required,decimalgtzero"`
	Description     string          `json:"description" binding:"required"`
	// OffsetAccountID is the expense or income account taking the other leg.
	OffsetAccountID string `json:"offsetAccountID" binding:"required"`
}

// FinalizeReconciliationResponse is returned after a successful finalize.
type FinalizeReconciliationResponse struct {
	Reconciliation ReconciliationResponse `json:"reconciliation"`
	Gap            decimal.Decimal        `json:"gap"`
}
