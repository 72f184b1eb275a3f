package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// DateLayout is the wire and form layout of a transaction date.
	DateLayout = "2006-01-02"
	// TimeLayout is the minute-precision clock time stamped at creation.
	TimeLayout = "15:04"

	MaxDescriptionLength = 200
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// Transaction is one income or expense entry. It is never edited; the
	// only way to change it is to delete it.
	Transaction struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Date        Date
		Time        string // HH:MM, may be empty on legacy records
		Type        TransactionType
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDate          = errors.New("empty date")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidTime        = errors.New("invalid time")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyID            = errors.New("empty id")
)

// ValidationError reports why user input could not become a Transaction.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason.Error()
}

func (e *ValidationError) Unwrap() error { return e.Reason }

func invalid(field string, reason error) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseType maps form input to a TransactionType. Empty input defaults to Income.
func ParseType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateTime accepts an empty time or an HH:MM clock time.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(TimeLayout, s); err != nil {
		return ErrInvalidTime
	}
	return nil
}

// Validate checks the record invariants.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id", ErrEmptyID)
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return invalid("description", ErrDescriptionTooLong)
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if err := ValidateTime(t.Time); err != nil {
		return invalid("time", err)
	}
	if err := t.Type.Validate(); err != nil {
		return invalid("type", err)
	}
	return nil
}

// Instant combines date and time into the moment used for display ordering.
// An empty time counts as midnight.
func (t Transaction) Instant() time.Time {
	instant := t.Date.Time
	if clock, err := time.Parse(TimeLayout, t.Time); err == nil {
		instant = instant.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	}
	return instant
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
