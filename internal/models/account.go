package models

import "github.com/shopspring/decimal"

// AccountType mirrors domain.AccountType for storage.
type AccountType string

// Account is the accounts table row.
type Account struct {
	AccountID      string      `json:"accountID"`
	OrganizationID string      `json:"organizationID"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	AccountType    AccountType `json:"accountType"`
	CurrencyCode   string      `json:"currencyCode"`
	Description    string      `json:"description"`
	IsBankAccount  bool        `json:"isBankAccount"`
	IsActive       bool        `json:"isActive"`
	AuditFields
	Balance decimal.Decimal `json:"balance"`
}
