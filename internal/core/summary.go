package core

import "github.com/shopspring/decimal"

// Summary holds the aggregate totals of a collection.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}

// Summarize totals income and expense amounts. Balance is always
// TotalIncome - TotalExpense.
func Summarize(items []Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range items {
		switch t.Type {
		case Income:
			income = income.Add(t.Amount)
		case Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// Add returns the element-wise sum of two summaries.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		TotalIncome:  s.TotalIncome.Add(o.TotalIncome),
		TotalExpense: s.TotalExpense.Add(o.TotalExpense),
		Balance:      s.Balance.Add(o.Balance),
	}
}

// Equal compares summaries numerically.
func (s Summary) Equal(o Summary) bool {
	return s.TotalIncome.Equal(o.TotalIncome) &&
		s.TotalExpense.Equal(o.TotalExpense) &&
		s.Balance.Equal(o.Balance)
}

// NonNegative reports whether the balance is zero or positive.
func (s Summary) NonNegative() bool {
	return !s.Balance.IsNegative()
}
