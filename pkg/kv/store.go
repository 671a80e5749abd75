package kv

import (
	"context"
	"errors"
	"fmt"
)

var ErrKeyNotFound = errors.New("key not found")

const (
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

type Entry struct {
	Key   []byte
	Value []byte
}

// Store is the key-value storage used for graph snapshots and the h3 vertex buckets.
// Get returns ErrKeyNotFound for a missing key.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	SetBatch(ctx context.Context, entries []Entry) error
	Close() error
}

// Open opens an on-disk store for the given backend name.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendBadger, "":
		return OpenBadger(dir, false)
	case BackendPebble:
		return OpenPebble(dir, nil)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", backend)
	}
}
