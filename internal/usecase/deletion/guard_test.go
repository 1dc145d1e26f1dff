package deletion

import (
	"context"
	"errors"
	"testing"

	"github.com/pennersr/towel/internal/domain/record"
)

func TestSafeDeleteBlocked(t *testing.T) {
	store := &mockStore{
		countFn: func(_ context.Context, _ record.Record, kind string) (int, error) {
			if kind == "phone" {
				return 2, nil
			}
			return 0, nil
		},
	}
	guard := New(store)

	outcome, err := guard.SafeDelete(context.Background(), mustRecord("contact", "1"), []string{"note", "phone"})
	if err != nil {
		t.Fatalf("SafeDelete: %v", err)
	}
	if outcome != Blocked {
		t.Fatalf("outcome = %v, want blocked", outcome)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatalf("blocked outcome must not delete, got %v", store.deleteCalls)
	}
}

func TestSafeDeleteDeleted(t *testing.T) {
	store := &mockStore{}
	guard := New(store)

	outcome, err := guard.SafeDelete(context.Background(), mustRecord("contact", "1"), []string{"note", "phone"})
	if err != nil {
		t.Fatalf("SafeDelete: %v", err)
	}
	if outcome != Deleted {
		t.Fatalf("outcome = %v, want deleted", outcome)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != "contact:1" {
		t.Fatalf("delete calls = %v", store.deleteCalls)
	}

	// Every count must have been issued before the delete.
	wantCounts := []string{"contact:1:note", "contact:1:phone"}
	if len(store.countCalls) != len(wantCounts) {
		t.Fatalf("count calls = %v, want %v", store.countCalls, wantCounts)
	}
}

func TestSafeDeletePropagatesCountError(t *testing.T) {
	boom := errors.New("store down")
	store := &mockStore{
		countFn: func(context.Context, record.Record, string) (int, error) { return 0, boom },
	}
	guard := New(store)

	_, err := guard.SafeDelete(context.Background(), mustRecord("contact", "1"), []string{"phone"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatal("a failed count must prevent the delete")
	}
}

func TestMayDeleteNoRelatedKinds(t *testing.T) {
	guard := New(&mockStore{})
	ok, err := guard.MayDelete(context.Background(), mustRecord("contact", "1"), nil)
	if err != nil || !ok {
		t.Fatalf("MayDelete with no related kinds = %v, %v; want true", ok, err)
	}
}

func TestFilterRemovals(t *testing.T) {
	store := &mockStore{
		countFn: func(_ context.Context, rec record.Record, _ string) (int, error) {
			if rec.ID() == "8" {
				return 1, nil // this child has its own dependent
			}
			return 0, nil
		},
	}
	guard := New(store)

	candidates := []record.Record{
		mustRecord("phone", "7"),
		mustRecord("phone", "8"),
		mustRecord("phone", "9"),
	}

	deletable, blocked, err := guard.FilterRemovals(context.Background(), candidates, []string{"callrecord"})
	if err != nil {
		t.Fatalf("FilterRemovals: %v", err)
	}
	if len(deletable) != 2 || deletable[0].ID() != "7" || deletable[1].ID() != "9" {
		t.Fatalf("deletable = %v", ids(deletable))
	}
	if len(blocked) != 1 || blocked[0].ID() != "8" {
		t.Fatalf("blocked = %v", ids(blocked))
	}
	if len(store.deleteCalls) != 0 {
		t.Fatal("FilterRemovals must not mutate")
	}
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}
