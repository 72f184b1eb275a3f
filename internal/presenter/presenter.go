// Package presenter turns store snapshots into display-ready views: the
// newest-first transaction list and the two summary panels.
package presenter

import (
	"slices"

	"moneybook/internal/core"
	"moneybook/internal/locale"
)

const (
	ClassIncome  = "income"
	ClassExpense = "expense"

	BalancePositive = "positive"
	BalanceNegative = "negative"
)

// Row is one rendered transaction.
type Row struct {
	ID          string
	Date        string
	Time        string
	Description string
	Amount      string
	AmountClass string
	TypeLabel   string
}

type ListView struct {
	Rows  []Row
	Empty bool
}

// Panel is one summary display region.
type Panel struct {
	TotalIncome  string
	TotalExpense string
	Balance      string
	BalanceState string
}

// SummaryView holds the top and bottom panels. They always carry the same
// values.
type SummaryView struct {
	Top    Panel
	Bottom Panel
}

// Presenter formats views for one catalog and currency.
type Presenter struct {
	catalog locale.Catalog
	format  *locale.Formatter
}

func New(catalog locale.Catalog, format *locale.Formatter) *Presenter {
	if format == nil {
		format = locale.NewFormatter(catalog.Tag, "")
	}
	return &Presenter{catalog: catalog, format: format}
}

func (p *Presenter) Catalog() locale.Catalog { return p.catalog }

// OrderForDisplay returns a copy of items sorted most recent first. Records
// sharing date and time are ordered by id, later-created first.
func OrderForDisplay(items []core.Transaction) []core.Transaction {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		if c := b.Instant().Compare(a.Instant()); c != 0 {
			return c
		}
		return core.CompareIDs(b.ID, a.ID)
	})
	return out
}

// List renders ordered records. It does not reorder them.
func (p *Presenter) List(ordered []core.Transaction) ListView {
	view := ListView{Rows: make([]Row, 0, len(ordered)), Empty: len(ordered) == 0}
	for _, t := range ordered {
		view.Rows = append(view.Rows, p.row(t))
	}
	return view
}

func (p *Presenter) row(t core.Transaction) Row {
	r := Row{
		ID:          t.ID,
		Date:        t.Date.String(),
		Time:        t.Time,
		Description: t.Description,
	}
	if t.Type == core.Expense {
		r.Amount = "-" + p.format.Amount(t.Amount)
		r.AmountClass = ClassExpense
		r.TypeLabel = p.catalog.Expense
	} else {
		r.Amount = "+" + p.format.Amount(t.Amount)
		r.AmountClass = ClassIncome
		r.TypeLabel = p.catalog.Income
	}
	return r
}

// Summary renders both panels from a single panel value.
func (p *Presenter) Summary(s core.Summary) SummaryView {
	panel := Panel{
		TotalIncome:  p.format.Amount(s.TotalIncome),
		TotalExpense: p.format.Amount(s.TotalExpense),
		Balance:      p.format.Amount(s.Balance),
		BalanceState: BalanceState(s),
	}
	return SummaryView{Top: panel, Bottom: panel}
}

// BalanceState is positive for a balance of zero or more.
func BalanceState(s core.Summary) string {
	if s.NonNegative() {
		return BalancePositive
	}
	return BalanceNegative
}
