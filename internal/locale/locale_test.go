package locale

import (
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

func TestLookup(t *testing.T) {
	cases := map[string]language.Tag{
		"km-KH":  language.Khmer,
		"km":     language.Khmer,
		"en":     language.English,
		"en-GB":  language.English,
		"":       language.Khmer,
		"???":    language.Khmer,
		"zz-top": language.Khmer,
	}
	for name, want := range cases {
		if got := Lookup(name).Tag; got != want {
			t.Errorf("Lookup(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCatalogsAreComplete(t *testing.T) {
	for _, c := range catalogs {
		fields := []string{
			c.Title, c.AddHeading, c.AddButton, c.ListHeading, c.Date, c.Time, c.Description,
			c.Amount, c.Type, c.Income, c.Expense, c.Delete, c.NoTransactions,
			c.TotalIncome, c.TotalExpense, c.Balance, c.AllTotals, c.ConfirmDelete,
			c.Yes, c.No, c.Added, c.Deleted, c.InvalidInput, c.SaveFailed, c.DeleteFailed,
			c.TooManyRequests,
		}
		for i, f := range fields {
			if f == "" {
				t.Fatalf("catalog %v has empty field %d", c.Tag, i)
			}
		}
	}
}

func TestFormatterAmount(t *testing.T) {
	f := NewFormatter(language.English, "usd")
	cases := []struct {
		in   string
		want string
	}{
		{"1000", "$1,000"},
		{"400.5", "$400.5"},
		{"0", "$0"},
		{"-250", "-$250"},
		{"0.001", "$0.001"},
		{"12345678901234567.89", "$12,345,678,901,234,567.89"},
	}
	for _, tc := range cases {
		if got := f.Amount(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("Amount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if f.Currency() != "USD" {
		t.Fatalf("expected normalized code, got %q", f.Currency())
	}
}

func TestFormatterRielAfterAmount(t *testing.T) {
	f := NewFormatter(Khmer.Tag, "KHR")
	cases := []struct {
		in   string
		want string
	}{
		{"1000", "1.000 ៛"},
		{"-600", "-600 ៛"},
		{"2500.75", "2.500,75 ៛"},
	}
	for _, tc := range cases {
		if got := f.Amount(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("Amount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatterUnknownCurrency(t *testing.T) {
	f := NewFormatter(language.English, "XYZ")
	if got := f.Amount(decimal.NewFromInt(12)); got != "12 XYZ" {
		t.Fatalf("unexpected %q", got)
	}
	if got := NewFormatter(language.English, "").Amount(decimal.NewFromInt(12)); got != "12" {
		t.Fatalf("unexpected %q", got)
	}
}
