package resource

import (
	"context"

	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
)

// Store is the consumer interface over the persistence layer. Deletion is
// deliberately split into CountDependents and Delete so the guard can read
// dependent counts before any delete is staged; implementations must not
// cascade on Delete.
type Store interface {
	List(ctx context.Context, kind string, pred filter.Predicate, orderBy []string) ([]record.Record, error)
	Get(ctx context.Context, kind, id string) (record.Record, error)
	Save(ctx context.Context, rec *record.Record) error
	Delete(ctx context.Context, rec record.Record) error
	CountDependents(ctx context.Context, rec record.Record, dependentKind string) (int, error)
}

// SearchStore persists the last raw search query per (session, endpoint).
// Purely a convenience default: concurrent writes are last-write-wins and
// read or write failures only cost the remembered search.
type SearchStore interface {
	Get(ctx context.Context, sessionID, endpointID string) (string, error)
	Set(ctx context.Context, sessionID, endpointID, raw string) error
	Clear(ctx context.Context, sessionID, endpointID string) error
}
