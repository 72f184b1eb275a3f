package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"moneybook/internal/core"
	"moneybook/internal/ledger"
	"moneybook/internal/locale"
	"moneybook/internal/notify"
)

// RawInput is the form as the user typed it.
type RawInput struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

// FormState is what the add form shows after a submit.
type FormState struct {
	Description string
	Amount      string
	Date        string
	Type        core.TransactionType
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// Always answers every confirmation with yes.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// TransactionService is the input controller: it turns raw form input into
// records and drives the add and delete flows against the store.
type TransactionService struct {
	store    *ledger.Store
	ids      *core.IDGenerator
	now      core.Clock
	catalog  locale.Catalog
	notifier notify.Notifier
	logger   *slog.Logger
}

type Option func(*TransactionService)

func WithClock(now core.Clock) Option {
	return func(s *TransactionService) { s.now = now }
}

func WithCatalog(c locale.Catalog) Option {
	return func(s *TransactionService) { s.catalog = c }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *TransactionService) { s.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *TransactionService) { s.logger = l }
}

func NewTransactionService(store *ledger.Store, opts ...Option) *TransactionService {
	s := &TransactionService{
		store:    store,
		now:      time.Now,
		catalog:  locale.Khmer,
		notifier: notify.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "transactions")
	s.ids = core.NewIDGenerator(s.now)
	for _, t := range store.Snapshot() {
		s.ids.Observe(t.ID)
	}
	return s
}

func (s *TransactionService) Store() *ledger.Store { return s.store }

func (s *TransactionService) Catalog() locale.Catalog { return s.catalog }

// Defaults is the blank form: empty description and amount, today's date,
// type income.
func (s *TransactionService) Defaults() FormState {
	return FormState{
		Date: core.DateOf(s.now()).String(),
		Type: core.Income,
	}
}

// BuildRecord validates raw input and stamps a fresh id and the current
// clock time.
func (s *TransactionService) BuildRecord(raw RawInput) (core.Transaction, error) {
	description := SanitizeDescription(raw.Description)
	if description == "" {
		return core.Transaction{}, &core.ValidationError{Field: "description", Reason: core.ErrEmptyDescription}
	}
	if len([]rune(description)) > core.MaxDescriptionLength {
		return core.Transaction{}, &core.ValidationError{Field: "description", Reason: core.ErrDescriptionTooLong}
	}
	amount, err := core.ParseAmount(raw.Amount)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Reason: err}
	}
	date, err := core.ParseDate(raw.Date)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "date", Reason: err}
	}
	typ, err := core.ParseType(raw.Type)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "type", Reason: err}
	}

	return core.Transaction{
		ID:          s.ids.Next(),
		Description: description,
		Amount:      amount,
		Date:        date,
		Time:        s.now().Format(core.TimeLayout),
		Type:        typ,
	}, nil
}

// Submit runs the add flow. On success the returned form is reset to the
// defaults; on failure it echoes the input and nothing is stored.
func (s *TransactionService) Submit(ctx context.Context, raw RawInput) (FormState, core.Transaction, error) {
	echo := FormState{
		Description: raw.Description,
		Amount:      raw.Amount,
		Date:        raw.Date,
		Type:        core.TransactionType(raw.Type),
	}

	t, err := s.BuildRecord(raw)
	if err != nil {
		s.logger.InfoContext(ctx, "Rejected transaction input", "error", err)
		s.notifier.Notify(ctx, s.catalog.InvalidInput, notify.Error)
		return echo, core.Transaction{}, err
	}

	if err := s.store.Add(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "Failed to add transaction", "id", t.ID, "error", err)
		s.notifier.Notify(ctx, s.catalog.SaveFailed, notify.Error)
		return echo, core.Transaction{}, fmt.Errorf("submit: %w", err)
	}

	s.notifier.Notify(ctx, s.catalog.Added, notify.Success)
	return s.Defaults(), t, nil
}

// RequestDelete asks for confirmation and only then removes id. A declined
// prompt is a silent no-op.
func (s *TransactionService) RequestDelete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(ctx, s.catalog.ConfirmDelete) {
		s.logger.DebugContext(ctx, "Delete declined", "id", id)
		return false, nil
	}

	if _, err := s.store.Remove(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete transaction", "id", id, "error", err)
		s.notifier.Notify(ctx, s.catalog.DeleteFailed, notify.Error)
		return false, fmt.Errorf("delete: %w", err)
	}

	s.notifier.Notify(ctx, s.catalog.Deleted, notify.Success)
	return true, nil
}

// SanitizeDescription trims the text, turns line breaks and tabs into
// spaces and drops other control characters.
func SanitizeDescription(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// IsInputError reports whether err came from rejected user input rather
// than from storage.
func IsInputError(err error) bool {
	return core.IsValidationError(err) || errors.Is(err, ledger.ErrDuplicateID)
}
