package storage

import (
	"context"
	"time"
)

// Backend is a flat string-keyed byte store. Get returns (nil, nil) for a
// missing or expired key. Commit applies every write or none of them.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, writes []Write) error
	Ping(ctx context.Context) error
	Close() error
}

// Write sets or deletes one key. A positive TTL makes the key expire; zero
// keeps it until it is overwritten or deleted.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
	TTL    time.Duration
}

// Sweeper is implemented by backends that keep expired keys around until
// they are removed explicitly.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}
