package accounting

import (
	"fmt"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount applies the correct sign to an entry amount based on
// account type and entry type. Used in both services and repositories to keep
// the accounting convention in one place.
//
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/INCOME -> Negative (-)
// CREDIT to LIABILITY/EQUITY/INCOME -> Positive (+)
func CalculateSignedAmount(entry domain.LedgerEntry, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := entry.Amount
	isDebit := entry.EntryType == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Income:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, entry.AccountID)
	}
	return signedAmount, nil
}

// ValidateTransactionBalance checks the double-entry identity over a set of
// entries: at least two entries, every amount strictly positive, and
// sum(DEBIT) equal to sum(CREDIT) with zero tolerance.
func ValidateTransactionBalance(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return fmt.Errorf("transaction must have at least two ledger entries")
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero

	for _, entry := range entries {
		if entry.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("entry amount must be positive for account %s", entry.AccountID)
		}
		if entry.EntryType == domain.Debit {
			debitsSum = debitsSum.Add(entry.Amount)
		} else {
			creditsSum = creditsSum.Add(entry.Amount)
		}
	}

	if !debitsSum.Equal(creditsSum) {
		return fmt.Errorf("ledger entries do not balance: debits sum is %s and credits sum is %s",
			debitsSum.String(), creditsSum.String())
	}
	return nil
}

// WithinTolerance reports whether two amounts are equal up to the given
// non-negative tolerance. A zero tolerance demands exact equality.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

// CalculateReconciliationGap computes the expected book balance from the
// cleared items and the remaining gap to the statement balance:
//
//	expected = opening + sum(cleared inflows) - sum(cleared outflows)
//	gap      = statement - expected
//
// The computation is linear in the cleared set: clearing one extra inflow of X
// shrinks the gap by X, clearing an outflow of X grows it by X.
func CalculateReconciliationGap(openingBalance, statementBalance decimal.Decimal, items []domain.ClearableItem) domain.ReconciliationGap {
	expected := openingBalance
	for _, item := range items {
		if !item.IsCleared {
			continue
		}
		if item.Direction == domain.Inflow {
			expected = expected.Add(item.Amount)
		} else {
			expected = expected.Sub(item.Amount)
		}
	}
	return domain.ReconciliationGap{
		ExpectedBalance: expected,
		Gap:             statementBalance.Sub(expected),
	}
}
