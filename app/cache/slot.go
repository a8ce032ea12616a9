package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/lysyi3m/newsdesk/app/database"
)

// SchemaVersion tags every persisted envelope. Envelopes written with another
// version read as absent.
const SchemaVersion = 1

// ErrPayloadTooLarge is returned when an encoded value exceeds the slot's
// byte ceiling. Nothing is written in that case.
var ErrPayloadTooLarge = errors.New("payload exceeds size ceiling")

type Envelope[T any] struct {
	Version   int   `json:"version"`
	Timestamp int64 `json:"timestamp"`
	Data      T     `json:"data"`
}

// Slot persists a single value under one key of the store, wrapped in a
// versioned, timestamped envelope.
type Slot[T any] struct {
	store    database.Store
	key      string
	maxBytes int
}

// NewSlot returns a slot for key. A non-positive maxBytes disables the
// ceiling check.
func NewSlot[T any](store database.Store, key string, maxBytes int) *Slot[T] {
	return &Slot[T]{store: store, key: key, maxBytes: maxBytes}
}

func (s *Slot[T]) Key() string {
	return s.key
}

// Save encodes data and writes it. When the store rejects the row as too big
// the key is deleted so no stale value outlives the failed write.
func (s *Slot[T]) Save(ctx context.Context, data T, at time.Time) error {
	payload, err := json.Marshal(Envelope[T]{
		Version:   SchemaVersion,
		Timestamp: at.UnixMilli(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}

	if s.maxBytes > 0 && len(payload) > s.maxBytes {
		return fmt.Errorf("%s is %d bytes, ceiling %d: %w", s.key, len(payload), s.maxBytes, ErrPayloadTooLarge)
	}

	if err := s.store.Set(ctx, s.key, payload); err != nil {
		if errors.Is(err, database.ErrRowTooBig) {
			if delErr := s.store.Delete(ctx, s.key); delErr != nil {
				return fmt.Errorf("failed to clear %s after oversized write: %w", s.key, errors.Join(err, delErr))
			}
		}
		return err
	}

	return nil
}

// Load reads the slot. Missing, unreadable, corrupt and other-version values
// all read as absent.
func (s *Slot[T]) Load(ctx context.Context) (T, time.Time, bool) {
	var zero T

	payload, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		slog.Warn("Failed to read persisted slot", "key", s.key, "error", err)
		return zero, time.Time{}, false
	}
	if !ok || len(payload) == 0 {
		return zero, time.Time{}, false
	}

	var envelope Envelope[T]
	if err := json.Unmarshal(payload, &envelope); err != nil {
		slog.Warn("Persisted slot is corrupt, ignoring", "key", s.key, "error", err)
		return zero, time.Time{}, false
	}

	if envelope.Version != SchemaVersion {
		slog.Info("Persisted slot has another schema version, ignoring", "key", s.key, "version", envelope.Version)
		return zero, time.Time{}, false
	}

	return envelope.Data, time.UnixMilli(envelope.Timestamp), true
}

func (s *Slot[T]) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

// LogSaveError reports a failed Save at the level its cause deserves.
func LogSaveError(key string, err error) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		slog.Warn("Payload exceeds size ceiling, write skipped", "key", key, "error", err)
	case errors.Is(err, database.ErrRowTooBig):
		slog.Warn("Store rejected oversized row, persisted value cleared", "key", key, "error", err)
	default:
		slog.Error("Failed to persist", "key", key, "error", err)
	}
}
