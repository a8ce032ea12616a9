// Package dbtest provides an in-memory database.Store for tests.
package dbtest

import (
	"context"
	"slices"
	"sync"

	"github.com/lysyi3m/newsdesk/app/database"
)

// Store keeps values in a map. SetErr, when set, is returned by every Set
// call; SetHook runs before each write.
type Store struct {
	mu      sync.Mutex
	values  map[string][]byte
	sets    int
	deletes int

	SetErr  error
	SetHook func(key string, value []byte)
}

var _ database.Store = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return slices.Clone(value), ok, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	hook := s.SetHook
	s.mu.Unlock()

	if hook != nil {
		hook(key, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.values, key)
	return nil
}

// Put writes a raw value, bypassing SetErr and the counters.
func (s *Store) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = slices.Clone(value)
}

func (s *Store) Value(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return slices.Clone(value), ok
}

func (s *Store) SetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *Store) DeleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetErr = err
}
