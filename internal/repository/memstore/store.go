// Package memstore is an in-memory record store with relational schemas.
//
// It implements the store contracts of the resource controller and the
// deletion guard: predicate-filtered listing in insertion order, dotted
// field paths across to-one and to-many relations, dependent counting and
// plain (non-cascading) deletion. Used by tests and the demo server; a SQL
// or Redis-backed store can replace it behind the same interfaces.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/pennersr/towel/internal/domain"
	"github.com/pennersr/towel/internal/domain/filter"
	"github.com/pennersr/towel/internal/domain/record"
)

// Store holds records of several kinds, guarded by one lock.
type Store struct {
	mu      sync.RWMutex
	schemas map[string]record.Schema
	records map[string]map[string]record.Record
	order   map[string][]string // insertion order per kind
	nextID  map[string]int
}

// New creates a Store for the given schemas. Kinds without a schema can
// still be stored; they just have no traversable relations.
func New(schemas ...record.Schema) *Store {
	s := &Store{
		schemas: make(map[string]record.Schema, len(schemas)),
		records: make(map[string]map[string]record.Record),
		order:   make(map[string][]string),
		nextID:  make(map[string]int),
	}
	for _, schema := range schemas {
		s.schemas[schema.Kind()] = schema
	}
	return s
}

// Save persists a record, assigning a numeric identifier if it has none.
func (s *Store) Save(_ context.Context, rec *record.Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := rec.Kind()
	if s.records[kind] == nil {
		s.records[kind] = make(map[string]record.Record)
	}

	if rec.ID() == "" {
		s.nextID[kind]++
		rec.SetID(strconv.Itoa(s.nextID[kind]))
	}

	if _, exists := s.records[kind][rec.ID()]; !exists {
		s.order[kind] = append(s.order[kind], rec.ID())
	}
	// Store a copy: the caller keeps mutating its record, and later
	// SetField calls must not reach into the store.
	s.records[kind][rec.ID()] = rec.Clone()
	return nil
}

// Get returns a record by kind and identifier.
func (s *Store) Get(_ context.Context, kind, id string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[kind][id]
	if !ok {
		return record.Record{}, fmt.Errorf("%s/%s: %w", kind, id, domain.ErrNotFound)
	}
	return rec.Clone(), nil
}

// List returns records of a kind matching the predicate, in insertion order
// unless an ordering is given. Each record appears exactly once regardless
// of how many related rows matched the predicate.
func (s *Store) List(
	_ context.Context, kind string, pred filter.Predicate, orderBy []string,
) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record.Record
	for _, id := range s.order[kind] {
		rec, ok := s.records[kind][id]
		if !ok {
			continue
		}
		if pred.Match(s.valuesLocked(rec)) {
			out = append(out, rec.Clone())
		}
	}

	if len(orderBy) > 0 {
		sortRecords(out, orderBy)
	}
	return out, nil
}

// Delete removes a single record. No cascade: dependents are untouched,
// which is exactly what the deletion guard relies on.
func (s *Store) Delete(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := rec.Kind()
	if _, ok := s.records[kind][rec.ID()]; !ok {
		return fmt.Errorf("%s/%s: %w", kind, rec.ID(), domain.ErrNotFound)
	}
	delete(s.records[kind], rec.ID())
	for i, id := range s.order[kind] {
		if id == rec.ID() {
			s.order[kind] = append(s.order[kind][:i], s.order[kind][i+1:]...)
			break
		}
	}
	return nil
}

// CountDependents counts records of dependentKind whose declared to-one
// relations reference rec.
func (s *Store) CountDependents(_ context.Context, rec record.Record, dependentKind string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.schemas[dependentKind]
	if !ok {
		return 0, fmt.Errorf("no schema for kind %q", dependentKind)
	}

	refFields := relationFieldsTo(schema, rec.Kind())
	if len(refFields) == 0 {
		return 0, nil
	}

	count := 0
	for _, dep := range s.records[dependentKind] {
		for _, field := range refFields {
			if v, ok := dep.Field(field); ok && toString(v) == rec.ID() {
				count++
				break
			}
		}
	}
	return count, nil
}

// relationFieldsTo returns the to-one relation fields of schema that point
// at targetKind.
func relationFieldsTo(schema record.Schema, targetKind string) []string {
	var fields []string
	for _, rel := range schema.Relations() {
		if !rel.IsToMany() && rel.Kind() == targetKind {
			fields = append(fields, rel.Name())
		}
	}
	return fields
}

// valuesLocked resolves dotted field paths for one record. Callers hold the
// read lock.
func (s *Store) valuesLocked(rec record.Record) filter.Values {
	return func(path string) []string {
		return s.resolveLocked(rec, path)
	}
}

func (s *Store) resolveLocked(rec record.Record, path string) []string {
	head, rest := record.SplitPath(path)

	if rest == "" {
		if v, ok := rec.Field(head); ok {
			return []string{toString(v)}
		}
		return nil
	}

	schema, ok := s.schemas[rec.Kind()]
	if !ok {
		return nil
	}
	rel, ok := schema.Relation(head)
	if !ok {
		return nil
	}

	var values []string
	if rel.IsToMany() {
		for _, id := range s.order[rel.Kind()] {
			remote := s.records[rel.Kind()][id]
			if v, ok := remote.Field(rel.RemoteField()); ok && toString(v) == rec.ID() {
				values = append(values, s.resolveLocked(remote, rest)...)
			}
		}
		return values
	}

	refID, ok := rec.Field(rel.Name())
	if !ok {
		return nil
	}
	remote, ok := s.records[rel.Kind()][toString(refID)]
	if !ok {
		return nil
	}
	return s.resolveLocked(remote, rest)
}

func sortRecords(recs []record.Record, orderBy []string) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, key := range orderBy {
			desc := false
			if len(key) > 0 && key[0] == '-' {
				desc = true
				key = key[1:]
			}
			vi, _ := recs[i].Field(key)
			vj, _ := recs[j].Field(key)
			si, sj := toString(vi), toString(vj)
			if si == sj {
				continue
			}
			if desc {
				return si > sj
			}
			return si < sj
		}
		return false
	})
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
