package deletion

import (
	"context"

	"github.com/pennersr/towel/internal/domain/record"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	countFn  func(ctx context.Context, rec record.Record, kind string) (int, error)
	deleteFn func(ctx context.Context, rec record.Record) error

	countCalls  []string // "<kind>:<id>:<dependentKind>"
	deleteCalls []string // "<kind>:<id>"
}

func (m *mockStore) CountDependents(ctx context.Context, rec record.Record, kind string) (int, error) {
	m.countCalls = append(m.countCalls, rec.Kind()+":"+rec.ID()+":"+kind)
	if m.countFn != nil {
		return m.countFn(ctx, rec, kind)
	}
	return 0, nil
}

func (m *mockStore) Delete(ctx context.Context, rec record.Record) error {
	m.deleteCalls = append(m.deleteCalls, rec.Kind()+":"+rec.ID())
	if m.deleteFn != nil {
		return m.deleteFn(ctx, rec)
	}
	return nil
}

func mustRecord(kind, id string) record.Record {
	rec, err := record.New(kind, id, nil)
	if err != nil {
		panic(err)
	}
	return rec
}
