package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account represents a ledger account within the core domain.
// Balance is a materialized projection over ledger entries; it is only ever
// mutated inside the same database transaction that inserts the entries.
type Account struct {
	AccountID      string      `json:"accountID"`      // Primary Key (UUID)
	OrganizationID string      `json:"organizationID"` // Tenant scope (NON-NULL)
	Code           string      `json:"code"`           // Chart-of-accounts code, unique per organization
	Name           string      `json:"name"`           // User-defined name
	AccountType    AccountType `json:"accountType"`    // ASSET, LIABILITY, etc.
	CurrencyCode   string      `json:"currencyCode"`
	Description    string      `json:"description"`
	IsBankAccount  bool        `json:"isBankAccount"` // Eligible for bank reconciliation
	IsActive       bool        `json:"isActive"`
	AuditFields
	Balance decimal.Decimal `json:"balance"`
}
