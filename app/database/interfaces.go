package database

import (
	"context"
	"errors"
)

// ErrRowTooBig is returned by Set when a value exceeds the row size the
// store accepts.
var ErrRowTooBig = errors.New("row too big")

// Store is a byte-oriented key-value store with no transactional guarantees
// across keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
