// Package searchstate persists the per-session remembered search query of
// each list endpoint.
//
// Keys are scoped by endpoint and session, so two browser tabs on different
// list pages keep independent queries while concurrent writes for the same
// pair resolve last-write-wins.
package searchstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pennersr/towel/internal/db"
)

// Store keeps remembered searches in a key-value store with a TTL.
type Store struct {
	kv     db.KVStore
	prefix string
	ttl    time.Duration
}

// New creates a Store. prefix namespaces the keys (e.g. "towel:"); ttl
// bounds how long an idle search survives.
func New(kv db.KVStore, prefix string, ttl time.Duration) *Store {
	return &Store{kv: kv, prefix: prefix, ttl: ttl}
}

func (s *Store) key(sessionID, endpointID string) string {
	return s.prefix + "search:" + endpointID + ":" + sessionID
}

// Get returns the remembered raw query, or "" when none is stored.
func (s *Store) Get(ctx context.Context, sessionID, endpointID string) (string, error) {
	data, err := s.kv.Get(ctx, s.key(sessionID, endpointID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get remembered search: %w", err)
	}
	return string(data), nil
}

// Set stores the raw query, refreshing the TTL.
func (s *Store) Set(ctx context.Context, sessionID, endpointID, raw string) error {
	if err := s.kv.SetWithTTL(ctx, s.key(sessionID, endpointID), []byte(raw), s.ttl); err != nil {
		return fmt.Errorf("persist search: %w", err)
	}
	return nil
}

// Clear drops the remembered query. Clearing an absent key is a no-op.
func (s *Store) Clear(ctx context.Context, sessionID, endpointID string) error {
	if err := s.kv.Del(ctx, s.key(sessionID, endpointID)); err != nil {
		return fmt.Errorf("clear remembered search: %w", err)
	}
	return nil
}
