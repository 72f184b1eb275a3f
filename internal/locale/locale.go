// Package locale holds the display text catalogs and the number/currency
// formatting used by every rendering surface. Catalog strings are opaque
// display text.
package locale

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Catalog is the set of strings a surface shows to the user.
type Catalog struct {
	Tag language.Tag

	Title          string
	AddHeading     string
	AddButton      string
	ListHeading    string
	Date           string
	Time           string
	Description    string
	Amount         string
	Type           string
	Income         string
	Expense        string
	Delete         string
	NoTransactions string
	TotalIncome    string
	TotalExpense   string
	Balance        string
	AllTotals      string

	ConfirmDelete string
	Yes           string
	No            string

	Added        string
	Deleted      string
	InvalidInput string
	SaveFailed   string
	DeleteFailed string

	TooManyRequests string
}

var Khmer = Catalog{
	Tag:            language.Khmer,
	Title:          "កត់ត្រាចំណូល និងចំណាយ",
	AddHeading:     "បន្ថែមប្រតិបត្តិការថ្មី",
	AddButton:      "បន្ថែមប្រតិបត្តិការ",
	ListHeading:    "ប្រតិបត្តិការទាំងអស់",
	Date:           "កាលបរិច្ឆេទ",
	Time:           "ម៉ោង",
	Description:    "ការពិពណ៌នា",
	Amount:         "ចំនួនទឹកប្រាក់",
	Type:           "ប្រភេទ",
	Income:         "ចំណូល",
	Expense:        "ចំណាយ",
	Delete:         "លុប",
	NoTransactions: "មិនទាន់មានប្រតិបត្តិការនៅឡើយទេ។",
	TotalIncome:    "ចំណូលសរុប",
	TotalExpense:   "ចំណាយសរុប",
	Balance:        "សមតុល្យ",
	AllTotals:      "សរុបប្រតិបត្តិការទាំងអស់",
	ConfirmDelete:  "តើអ្នកពិតជាចង់លុបប្រតិបត្តិការនេះមែនទេ?",
	Yes:            "បាទ/ចាស",
	No:             "ទេ",
	Added:          "ប្រតិបត្តិការត្រូវបានបន្ថែមដោយជោគជ័យ!",
	Deleted:        "ប្រតិបត្តិការត្រូវបានលុបដោយជោគជ័យ!",
	InvalidInput:   "សូមបញ្ចូលព័ត៌មានប្រតិបត្តិការឱ្យបានពេញលេញ និងត្រឹមត្រូវ។ (ចំនួនទឹកប្រាក់ត្រូវតែជាលេខវិជ្ជមាន)",
	SaveFailed:     "មិនអាចរក្សាទុកប្រតិបត្តិការបានទេ។",
	DeleteFailed:   "មិនអាចលុបប្រតិបត្តិការបានទេ។",

	TooManyRequests: "សំណើច្រើនពេក។ សូមព្យាយាមម្តងទៀតនៅពេលក្រោយ។",
}

var English = Catalog{
	Tag:            language.English,
	Title:          "Income & expense ledger",
	AddHeading:     "Add a transaction",
	AddButton:      "Add transaction",
	ListHeading:    "All transactions",
	Date:           "Date",
	Time:           "Time",
	Description:    "Description",
	Amount:         "Amount",
	Type:           "Type",
	Income:         "Income",
	Expense:        "Expense",
	Delete:         "Delete",
	NoTransactions: "No transactions yet.",
	TotalIncome:    "Total income",
	TotalExpense:   "Total expense",
	Balance:        "Balance",
	AllTotals:      "Totals for all transactions",
	ConfirmDelete:  "Are you sure you want to delete this transaction?",
	Yes:            "Yes",
	No:             "No",
	Added:          "Transaction added successfully!",
	Deleted:        "Transaction deleted successfully!",
	InvalidInput:   "Please fill in every field correctly. (The amount must be a positive number)",
	SaveFailed:     "The transaction could not be saved.",
	DeleteFailed:   "The transaction could not be deleted.",

	TooManyRequests: "Too many requests. Please try again later.",
}

var (
	catalogs = []Catalog{Khmer, English}
	matcher  = language.NewMatcher([]language.Tag{language.Khmer, language.English})
)

// Lookup picks the closest catalog for a BCP 47 name such as "km-KH" or
// "en". Unknown or unparsable names fall back to Khmer.
func Lookup(name string) Catalog {
	tag, err := language.Parse(strings.TrimSpace(name))
	if err != nil {
		return Khmer
	}
	_, i, conf := matcher.Match(tag)
	if conf == language.No {
		return Khmer
	}
	return catalogs[i]
}

// symbolAfter lists currencies written with the symbol after the amount,
// where go-money's templates put it first.
var symbolAfter = map[string]string{
	money.KHR: "1 $",
}

// Formatter renders amounts with locale separators and a currency symbol.
// Digits come straight from the decimal, so nothing is rounded away.
type Formatter struct {
	code     string
	grapheme string
	template string
	group    string
	point    string
}

// NewFormatter builds a formatter for tag and an ISO 4217 currency code.
func NewFormatter(tag language.Tag, currencyCode string) *Formatter {
	p := message.NewPrinter(tag)
	f := &Formatter{
		code:  strings.ToUpper(strings.TrimSpace(currencyCode)),
		group: separator(p, number.Decimal(1000)),
		point: separator(p, number.Decimal(1.5, number.MinFractionDigits(1))),
	}
	if f.point == "" {
		f.point = "."
	}
	if cur := money.GetCurrency(f.code); f.code != "" && cur != nil {
		f.grapheme = cur.Grapheme
		f.template = cur.Template
		if t, ok := symbolAfter[f.code]; ok {
			f.template = t
		}
	}
	return f
}

// separator prints a sample number for the locale and keeps what is not a
// digit: the grouping mark for 1000, the decimal mark for 1.5.
func separator(p *message.Printer, n number.Formatter) string {
	return strings.TrimFunc(p.Sprintf("%v", n), unicode.IsDigit)
}

// Number formats d with the locale's grouping and decimal marks.
func (f *Formatter) Number(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.String(), ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(f.point)
		b.WriteString(frac)
	}
	return b.String()
}

// Amount formats d as money, placing the symbol the way the currency does.
// Negative amounts carry a leading minus in front of everything.
func (f *Formatter) Amount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	n := f.Number(d)
	if f.template == "" {
		if f.code == "" {
			return sign + n
		}
		return sign + n + " " + f.code
	}
	out := strings.Replace(f.template, "1", n, 1)
	return sign + strings.Replace(out, "$", f.grapheme, 1)
}

// Currency returns the ISO code the formatter was built with.
func (f *Formatter) Currency() string { return f.code }
