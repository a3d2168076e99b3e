package accounting

import (
	"testing"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		entryType   domain.EntryType
		accountType domain.AccountType
		want        decimal.Decimal
		wantErr     bool
	}{
		{name: "debit to asset is positive", entryType: domain.Debit, accountType: domain.Asset, want: amount},
		{name: "credit to asset is negative", entryType: domain.Credit, accountType: domain.Asset, want: amount.Neg()},
		{name: "debit to expense is positive", entryType: domain.Debit, accountType: domain.Expense, want: amount},
		{name: "credit to expense is negative", entryType: domain.Credit, accountType: domain.Expense, want: amount.Neg()},
		{name: "debit to liability is negative", entryType: domain.Debit, accountType: domain.Liability, want: amount.Neg()},
		{name: "credit to liability is positive", entryType: domain.Credit, accountType: domain.Liability, want: amount},
		{name: "debit to income is negative", entryType: domain.Debit, accountType: domain.Income, want: amount.Neg()},
		{name: "credit to income is positive", entryType: domain.Credit, accountType: domain.Income, want: amount},
		{name: "debit to equity is negative", entryType: domain.Debit, accountType: domain.Equity, want: amount.Neg()},
		{name: "unknown account type errors", entryType: domain.Debit, accountType: domain.AccountType("BOGUS"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.LedgerEntry{AccountID: "acc-1", EntryType: tt.entryType, Amount: amount}
			got, err := CalculateSignedAmount(entry, tt.accountType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestValidateTransactionBalance(t *testing.T) {
	debit := func(amount int64) domain.LedgerEntry {
		return domain.LedgerEntry{AccountID: "acc-d", EntryType: domain.Debit, Amount: decimal.NewFromInt(amount)}
	}
	credit := func(amount int64) domain.LedgerEntry {
		return domain.LedgerEntry{AccountID: "acc-c", EntryType: domain.Credit, Amount: decimal.NewFromInt(amount)}
	}

	t.Run("balanced entries pass", func(t *testing.T) {
		err := ValidateTransactionBalance([]domain.LedgerEntry{debit(100), credit(60), credit(40)})
		assert.NoError(t, err)
	})

	t.Run("unbalanced entries fail", func(t *testing.T) {
		err := ValidateTransactionBalance([]domain.LedgerEntry{debit(100), credit(99)})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "do not balance")
	})

	t.Run("fewer than two entries fail", func(t *testing.T) {
		err := ValidateTransactionBalance([]domain.LedgerEntry{debit(100)})
		assert.Error(t, err)
	})

	t.Run("zero amount entry fails", func(t *testing.T) {
		err := ValidateTransactionBalance([]domain.LedgerEntry{debit(0), credit(0)})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})

	t.Run("fractional amounts balance exactly", func(t *testing.T) {
		entries := []domain.LedgerEntry{
			{AccountID: "a", EntryType: domain.Debit, Amount: decimal.RequireFromString("0.1")},
			{AccountID: "b", EntryType: domain.Debit, Amount: decimal.RequireFromString("0.2")},
			{AccountID: "c", EntryType: domain.Credit, Amount: decimal.RequireFromString("0.3")},
		}
		assert.NoError(t, ValidateTransactionBalance(entries))
	})
}

func TestWithinTolerance(t *testing.T) {
	tol := decimal.RequireFromString("0.05")

	assert.True(t, WithinTolerance(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.00"), tol))
	assert.True(t, WithinTolerance(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.05"), tol))
	assert.True(t, WithinTolerance(decimal.RequireFromString("100.05"), decimal.RequireFromString("100.00"), tol))
	assert.False(t, WithinTolerance(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.06"), tol))

	// Zero tolerance demands exact equality
	assert.True(t, WithinTolerance(decimal.NewFromInt(7), decimal.NewFromInt(7), decimal.Zero))
	assert.False(t, WithinTolerance(decimal.RequireFromString("7.00"), decimal.RequireFromString("7.01"), decimal.Zero))
}

func TestCalculateReconciliationGap(t *testing.T) {
	opening := decimal.NewFromInt(1000)
	statement := decimal.NewFromInt(1500)

	inflow := domain.ClearableItem{ItemID: "in-1", Direction: domain.Inflow, Amount: decimal.NewFromInt(700), IsCleared: true}
	outflow := domain.ClearableItem{ItemID: "out-1", Direction: domain.Outflow, Amount: decimal.NewFromInt(200), IsCleared: true}
	uncleared := domain.ClearableItem{ItemID: "in-2", Direction: domain.Inflow, Amount: decimal.NewFromInt(9999), IsCleared: false}

	t.Run("expected and gap from cleared items only", func(t *testing.T) {
		gap := CalculateReconciliationGap(opening, statement, []domain.ClearableItem{inflow, outflow, uncleared})
		// 1000 + 700 - 200 = 1500, gap 0
		assert.True(t, gap.ExpectedBalance.Equal(decimal.NewFromInt(1500)), "expected %s", gap.ExpectedBalance)
		assert.True(t, gap.Gap.IsZero(), "gap %s", gap.Gap)
	})

	t.Run("nothing cleared leaves the full gap", func(t *testing.T) {
		gap := CalculateReconciliationGap(opening, statement, []domain.ClearableItem{uncleared})
		assert.True(t, gap.ExpectedBalance.Equal(opening))
		assert.True(t, gap.Gap.Equal(decimal.NewFromInt(500)), "gap %s", gap.Gap)
	})

	t.Run("clearing one inflow shrinks the gap by its amount", func(t *testing.T) {
		before := CalculateReconciliationGap(opening, statement, nil)
		after := CalculateReconciliationGap(opening, statement, []domain.ClearableItem{
			{ItemID: "in-3", Direction: domain.Inflow, Amount: decimal.NewFromInt(120), IsCleared: true},
		})
		assert.True(t, before.Gap.Sub(after.Gap).Equal(decimal.NewFromInt(120)))
	})

	t.Run("clearing one outflow grows the gap by its amount", func(t *testing.T) {
		before := CalculateReconciliationGap(opening, statement, nil)
		after := CalculateReconciliationGap(opening, statement, []domain.ClearableItem{
			{ItemID: "out-2", Direction: domain.Outflow, Amount: decimal.NewFromInt(80), IsCleared: true},
		})
		assert.True(t, after.Gap.Sub(before.Gap).Equal(decimal.NewFromInt(80)))
	})
}
