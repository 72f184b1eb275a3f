package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

// TransactionsKey is the fixed key the collection is stored under.
const TransactionsKey = "transactions"

// record is the stored shape of a transaction. Amount is a JSON number.
type record struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Type        string      `json:"type"`
}

// Persistence translates the collection to and from one blob.
type Persistence struct {
	store  BlobStore
	key    string
	logger *slog.Logger
}

func NewPersistence(store BlobStore, logger *slog.Logger) *Persistence {
	return NewPersistenceWithKey(store, TransactionsKey, logger)
}

func NewPersistenceWithKey(store BlobStore, key string, logger *slog.Logger) *Persistence {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persistence{store: store, key: key, logger: logger.With("component", "storage")}
}

// Load reads the stored collection. A missing, unreadable or malformed blob
// yields an empty collection; the problem is logged, never returned.
func (p *Persistence) Load(ctx context.Context) []core.Transaction {
	blob, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to read stored transactions, starting empty",
			"key", p.key, "error", err)
		return []core.Transaction{}
	}
	if !ok || len(strings.TrimSpace(string(blob))) == 0 {
		return []core.Transaction{}
	}

	items, err := Decode(blob)
	if err != nil {
		p.logger.WarnContext(ctx, "Stored transactions are malformed, starting empty",
			"key", p.key, "bytes", len(blob), "error", err)
		return []core.Transaction{}
	}

	p.logger.DebugContext(ctx, "Loaded transactions", "key", p.key, "count", len(items))
	return items
}

// Save overwrites the stored blob with the full collection.
func (p *Persistence) Save(ctx context.Context, items []core.Transaction) error {
	blob, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := p.store.Put(ctx, p.key, blob); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// Encode serialises the collection as a JSON array.
func Encode(items []core.Transaction) ([]byte, error) {
	records := make([]record, len(items))
	for i, t := range items {
		records[i] = record{
			ID:          t.ID,
			Description: t.Description,
			Amount:      json.Number(t.Amount.String()),
			Date:        t.Date.String(),
			Time:        t.Time,
			Type:        string(t.Type),
		}
	}
	return json.Marshal(records)
}

// Decode parses a JSON array of records. Any record that breaks the
// transaction shape fails the whole blob. Time is kept verbatim.
func Decode(blob []byte) ([]core.Transaction, error) {
	var records []record
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	items := make([]core.Transaction, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("record %d: %w", i, core.ErrEmptyID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = struct{}{}

		amount, err := decimal.NewFromString(r.Amount.String())
		if err != nil || !amount.IsPositive() {
			return nil, fmt.Errorf("record %d: %w", i, core.ErrInvalidAmount)
		}
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		typ := core.TransactionType(r.Type)
		if err := typ.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if strings.TrimSpace(r.Description) == "" {
			return nil, fmt.Errorf("record %d: %w", i, core.ErrEmptyDescription)
		}

		items = append(items, core.Transaction{
			ID:          r.ID,
			Description: r.Description,
			Amount:      amount,
			Date:        date,
			Time:        r.Time,
			Type:        typ,
		})
	}
	return items, nil
}
