package dto

import (
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ImportBankTransactionRequest defines one bank-feed line to import.
type ImportBankTransactionRequest struct {
	BankAccountID   string               `json:"bankAccountID" binding:"required"`
	TransactionDate time.Time            `json:"transactionDate" binding:"required"`
	Amount          decimal.Decimal      `json:"amount" binding:"required,decimalgtzero"`
	Direction       domain.FlowDirection `json:"direction" binding:"required,oneof=INFLOW OUTFLOW"`
	Description     string               `json:"description"`
	Reference       string               `json:"reference" binding:"required"`
}

// BankTransactionResponse defines the data returned for a bank transaction.
type BankTransactionResponse struct {
	BankTransactionID       string               `json:"bankTransactionID"`
	BankAccountID           string               `json:"bankAccountID"`
	TransactionDate         time.Time            `json:"transactionDate"`
	Amount                  decimal.Decimal      `json:"amount"`
	Direction               domain.FlowDirection `json:"direction"`
	Description             string               `json:"description"`
	Reference               string               `json:"reference"`
	MatchedPaymentID        *string              `json:"matchedPaymentID,omitempty"`
	MatchedReconciliationID *string              `json:"matchedReconciliationID,omitempty"`
	MatchedAt               *time.Time           `json:"matchedAt,omitempty"`
	CreatedAt               time.Time            `json:"createdAt"`
}

// ToBankTransactionResponse converts a domain.BankTransaction to BankTransactionResponse DTO.
func ToBankTransactionResponse(bt *domain.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		BankTransactionID:       bt.BankTransactionID,
		BankAccountID:           bt.BankAccountID,
		TransactionDate:         bt.TransactionDate,
		Amount:                  bt.Amount,
		Direction:               bt.Direction,
		Description:             bt.Description,
		Reference:               bt.Reference,
		MatchedPaymentID:        bt.MatchedPaymentID,
		MatchedReconciliationID: bt.MatchedReconciliationID,
		MatchedAt:               bt.MatchedAt,
		CreatedAt:               bt.CreatedAt,
	}
}

// ToBankTransactionResponses converts a slice of domain.BankTransaction to []BankTransactionResponse.
func ToBankTransactionResponses(txns []domain.BankTransaction) []BankTransactionResponse {
	responses := make([]BankTransactionResponse, len(txns))
	for i, bt := range txns {
		responses[i] = ToBankTransactionResponse(&bt)
	}
	return responses
}
