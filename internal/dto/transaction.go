package dto

import (
	"time"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryInput defines one ledger line of a transaction to be posted.
type EntryInput struct {
	AccountID string           `json:"accountID" binding:"required"`
	EntryType domain.EntryType `json:"entryType" binding:"required,oneof=DEBIT CREDIT"`
	Amount    decimal.Decimal  `json:"amount" binding:"required,decimalgtzero"`
	Notes     string           `json:"notes"`
}

// PostTransactionRequest defines the data needed to post a journal transaction.
type PostTransactionRequest struct {
	TransactionDate time.Time    `json:"transactionDate" binding:"required"`
	Description     string       `json:"description" binding:"required"`
	CurrencyCode    string       `json:"currencyCode" binding:"required,len=3"`
	Entries         []EntryInput `json:"entries" binding:"required,min=2,dive"`
}

// ReverseTransactionRequest is the optional body for reverse and void calls.
// When the date is omitted the reversal is dated today.
type ReverseTransactionRequest struct {
	TransactionDate *time.Time `json:"transactionDate"`
}

// LedgerEntryResponse defines the data returned for a ledger entry.
type LedgerEntryResponse struct {
	EntryID        string           `json:"entryID"`
	TransactionID  string           `json:"transactionID"`
	AccountID      string           `json:"accountID"`
	EntryType      domain.EntryType `json:"entryType"`
	Amount         decimal.Decimal  `json:"amount"`
	Notes          string           `json:"notes"`
	RunningBalance decimal.Decimal  `json:"runningBalance"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// TransactionResponse defines the data returned for a transaction header.
type TransactionResponse struct {
	TransactionID          string                   `json:"transactionID"`
	Number                 string                   `json:"number"`
	TransactionType        domain.TransactionType   `json:"transactionType"`
	TransactionDate        time.Time                `json:"transactionDate"`
	Description            string                   `json:"description"`
	CurrencyCode           string                   `json:"currencyCode"`
	Status                 domain.TransactionStatus `json:"status"`
	OriginalTransactionID  *string                  `json:"originalTransactionID,omitempty"`
	ReversingTransactionID *string                  `json:"reversingTransactionID,omitempty"`
	CreatedAt              time.Time                `json:"createdAt"`
	CreatedBy              string                   `json:"createdBy"`
}

// GetTransactionResponse combines a transaction header with its entries.
type GetTransactionResponse struct {
	Transaction TransactionResponse   `json:"transaction"`
	Entries     []LedgerEntryResponse `json:"entries"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to LedgerEntryResponse DTO.
func ToLedgerEntryResponse(entry *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:        entry.EntryID,
		TransactionID:  entry.TransactionID,
		AccountID:      entry.AccountID,
		EntryType:      entry.EntryType,
		Amount:         entry.Amount,
		Notes:          entry.Notes,
		RunningBalance: entry.RunningBalance,
		CreatedAt:      entry.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of domain.LedgerEntry to []LedgerEntryResponse.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToLedgerEntryResponse(&entry)
	}
	return responses
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:          txn.TransactionID,
		Number:                 txn.Number,
		TransactionType:        txn.TransactionType,
		TransactionDate:        txn.TransactionDate,
		Description:            txn.Description,
		CurrencyCode:           txn.CurrencyCode,
		Status:                 txn.Status,
		OriginalTransactionID:  txn.OriginalTransactionID,
		ReversingTransactionID: txn.ReversingTransactionID,
		CreatedAt:              txn.CreatedAt,
		CreatedBy:              txn.CreatedBy,
	}
}

// ToGetTransactionResponse combines a transaction and its entries into one response.
func ToGetTransactionResponse(txn *domain.Transaction) GetTransactionResponse {
	return GetTransactionResponse{
		Transaction: ToTransactionResponse(txn),
		Entries:     ToLedgerEntryResponses(txn.Entries),
	}
}

// ListEntriesParams defines query parameters for listing account entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of ledger entries with the token for the next page.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
