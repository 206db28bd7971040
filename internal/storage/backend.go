// Package storage persists console session values.
//
// A Backend stores raw bytes per namespace. Storage layers typed access
// (strings, string arrays, objects) on top of one namespace, and Cookies keeps
// cookie-scoped values in a namespace of their own so that Storage.Clear never
// removes them.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the persistence contract every driver implements.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	// Clear removes every key in the namespace.
	Clear(ctx context.Context, namespace string) error
}
