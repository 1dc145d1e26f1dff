// Package deletion guards record deletion behind a dependent-record check.
//
// The ordering contract of this package is load-bearing: every dependent
// count is read before any Delete call is issued, for the record itself and
// for child rows marked for removal in a formset save. A store that cascades
// deletes must therefore never see a delete for a record the guard has not
// cleared first.
package deletion

import (
	"context"
	"fmt"

	"github.com/pennersr/towel/internal/domain/record"
)

// Store is the consumer interface for the guard (ISP). CountDependents
// reports how many records of dependentKind hold a relation reference to
// rec; Delete removes a single record.
type Store interface {
	CountDependents(ctx context.Context, rec record.Record, dependentKind string) (int, error)
	Delete(ctx context.Context, rec record.Record) error
}

// Outcome is the result of a safe delete. Blocked is a normal outcome,
// not an error.
type Outcome int

const (
	// Deleted means no dependents were found and the record was removed.
	Deleted Outcome = iota
	// Blocked means at least one dependent exists and nothing was mutated.
	Blocked
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Blocked {
		return "blocked"
	}
	return "deleted"
}

// Guard decides whether records may be deleted.
type Guard struct {
	store Store
}

// New creates a Guard.
func New(store Store) *Guard {
	return &Guard{store: store}
}

// MayDelete reports whether rec has no dependents across all related kinds.
// It performs no mutation.
func (g *Guard) MayDelete(ctx context.Context, rec record.Record, relatedKinds []string) (bool, error) {
	for _, kind := range relatedKinds {
		n, err := g.store.CountDependents(ctx, rec, kind)
		if err != nil {
			return false, fmt.Errorf("count %s dependents of %s/%s: %w", kind, rec.Kind(), rec.ID(), err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

// SafeDelete checks dependents and deletes rec only if none exist.
// All counting completes before the delete is issued.
func (g *Guard) SafeDelete(ctx context.Context, rec record.Record, relatedKinds []string) (Outcome, error) {
	ok, err := g.MayDelete(ctx, rec, relatedKinds)
	if err != nil {
		return Blocked, err
	}
	if !ok {
		return Blocked, nil
	}
	if err := g.store.Delete(ctx, rec); err != nil {
		return Blocked, fmt.Errorf("delete %s/%s: %w", rec.Kind(), rec.ID(), err)
	}
	return Deleted, nil
}

// FilterRemovals partitions removal candidates into records that may be
// deleted and records that are blocked by their own dependents. Nothing is
// mutated; callers delete the returned deletable records only after every
// other step of their save sequence has been checked.
func (g *Guard) FilterRemovals(
	ctx context.Context, candidates []record.Record, relatedKinds []string,
) (deletable, blocked []record.Record, err error) {
	for _, rec := range candidates {
		ok, err := g.MayDelete(ctx, rec, relatedKinds)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			deletable = append(deletable, rec)
		} else {
			blocked = append(blocked, rec)
		}
	}
	return deletable, blocked, nil
}
