package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/storage"
)

func tx(id, desc string, amount int64, date core.Date, typ core.TransactionType) core.Transaction {
	return core.Transaction{ID: id, Description: desc, Amount: decimal.NewFromInt(amount), Date: date, Time: "10:00", Type: typ}
}

func newStore(t *testing.T) (*Store, *storage.Persistence) {
	t.Helper()
	p := storage.NewPersistence(storage.NewMemoryBlobStore(), nil)
	return Open(context.Background(), p, nil), p
}

func TestAddPersistsAndIsRetrievable(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)

	salary := tx("1", "Salary", 1000, core.NewDate(2024, 1, 1), core.Income)
	if err := s.Add(ctx, salary); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1, got %d", s.Len())
	}
	got, ok := s.Get("1")
	if !ok || got.Description != "Salary" {
		t.Fatalf("expected record by id, got %+v ok=%v", got, ok)
	}
	if stored := p.Load(ctx); len(stored) != 1 {
		t.Fatalf("expected storage to mirror memory, got %d", len(stored))
	}
	if s.Revision() != 1 {
		t.Fatalf("expected revision bump, got %d", s.Revision())
	}
}

func TestAddRejectsInvalidAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_ = s.Add(ctx, tx("1", "a", 1, core.NewDate(2024, 1, 1), core.Income))

	if err := s.Add(ctx, tx("1", "b", 1, core.NewDate(2024, 1, 1), core.Income)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := s.Add(ctx, tx("2", "b", 0, core.NewDate(2024, 1, 1), core.Income)); !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("size must be unchanged, got %d", s.Len())
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s, p := newStore(t)
	_ = s.Add(ctx, tx("1", "a", 1, core.NewDate(2024, 1, 1), core.Income))
	_ = s.Add(ctx, tx("2", "b", 2, core.NewDate(2024, 1, 2), core.Expense))

	removed, err := s.Remove(ctx, "1")
	if err != nil || !removed {
		t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 left, got %d", s.Len())
	}
	if _, ok := s.Get("2"); !ok {
		t.Fatalf("index must follow removal")
	}

	rev := s.Revision()
	removed, err = s.Remove(ctx, "missing")
	if err != nil || removed {
		t.Fatalf("missing id must be a no-op, got removed=%v err=%v", removed, err)
	}
	if s.Len() != 1 || len(p.Load(ctx)) != 1 {
		t.Fatalf("size must be unchanged")
	}
	if s.Revision() == rev {
		t.Fatalf("a no-op remove still saves")
	}
}

func TestOpenLoadsExisting(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryBlobStore()
	p := storage.NewPersistence(blobs, nil)
	_ = p.Save(ctx, []core.Transaction{tx("7", "a", 1, core.NewDate(2024, 1, 1), core.Income)})

	s := Open(ctx, p, nil)
	if _, ok := s.Get("7"); !ok {
		t.Fatalf("expected loaded record")
	}
}

type flakyPersister struct {
	inner *storage.Persistence
	fail  bool
}

func (f *flakyPersister) Load(ctx context.Context) []core.Transaction { return f.inner.Load(ctx) }

func (f *flakyPersister) Save(ctx context.Context, items []core.Transaction) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.inner.Save(ctx, items)
}

func TestFailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	fp := &flakyPersister{inner: storage.NewPersistence(storage.NewMemoryBlobStore(), nil)}
	s := Open(ctx, fp, nil)
	_ = s.Add(ctx, tx("1", "a", 1, core.NewDate(2024, 1, 1), core.Income))

	fp.fail = true
	if err := s.Add(ctx, tx("2", "b", 1, core.NewDate(2024, 1, 1), core.Income)); err == nil {
		t.Fatalf("expected save error")
	}
	if s.Len() != 1 {
		t.Fatalf("failed add must not change memory, got %d", s.Len())
	}
	if _, err := s.Remove(ctx, "1"); err == nil {
		t.Fatalf("expected save error on remove")
	}
	if _, ok := s.Get("1"); !ok {
		t.Fatalf("failed remove must not change memory")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_ = s.Add(ctx, tx("1", "a", 1, core.NewDate(2024, 1, 1), core.Income))
	snap := s.Snapshot()
	snap[0].Description = "changed"
	if got, _ := s.Get("1"); got.Description != "a" {
		t.Fatalf("snapshot must not alias the store")
	}
}
