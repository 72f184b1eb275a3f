// Package ledger owns the in-memory transaction collection and mirrors it to
// storage after every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"moneybook/internal/core"
)

var ErrDuplicateID = errors.New("duplicate transaction id")

// Persister is the durable side of the store.
type Persister interface {
	Load(ctx context.Context) []core.Transaction
	Save(ctx context.Context, items []core.Transaction) error
}

// Store is the transaction collection. Order of items carries no meaning.
type Store struct {
	mu       sync.RWMutex
	items    []core.Transaction
	index    map[string]int
	revision uint64
	persist  Persister
	logger   *slog.Logger
}

// Open loads the collection once from p.
func Open(ctx context.Context, p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		persist: p,
		logger:  logger.With("component", "ledger"),
	}
	s.items = p.Load(ctx)
	s.reindex()
	s.logger.InfoContext(ctx, "Ledger opened", "count", len(s.items))
	return s
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, t := range s.items {
		s.index[t.ID] = i
	}
}

// Add appends t and saves. On a failed save the append is undone.
func (s *Store) Add(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[t.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}

	next := append(s.snapshotLocked(), t)
	if err := s.persist.Save(ctx, next); err != nil {
		return fmt.Errorf("add transaction %s: %w", t.ID, err)
	}
	s.items = next
	s.index[t.ID] = len(next) - 1
	s.revision++

	s.logger.InfoContext(ctx, "Transaction added",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"date", t.Date.String())
	return nil
}

// Remove drops the record with id and saves, also when id is unknown.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if t.ID != id {
			next = append(next, t)
		}
	}
	removed := len(next) != len(s.items)

	if err := s.persist.Save(ctx, next); err != nil {
		return false, fmt.Errorf("remove transaction %s: %w", id, err)
	}
	s.items = next
	s.reindex()
	s.revision++

	if removed {
		s.logger.InfoContext(ctx, "Transaction removed", "id", id)
	} else {
		s.logger.DebugContext(ctx, "Remove of unknown transaction", "id", id)
	}
	return removed, nil
}

// Get looks a record up by id.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return core.Transaction{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy of the collection for read-only consumers.
func (s *Store) Snapshot() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Revision changes whenever the collection is mutated.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Summary aggregates the current collection.
func (s *Store) Summary() core.Summary {
	return core.Summarize(s.Snapshot())
}

func (s *Store) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}
