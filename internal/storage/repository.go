package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrInvalidGroup = errors.New("storage: group is required")
	ErrInvalidKey   = errors.New("storage: key is required")
)

// Backend is the configuration store shared by the tracker data store and the
// filter engine. Keys are case-sensitive.
type Backend interface {
	Get(ctx context.Context, group, key string) (string, error)
	Set(ctx context.Context, group, key, value string) error
	Delete(ctx context.Context, group, key string) error
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	// ReplacePrefix atomically replaces every key in group that starts with
	// prefix by the given values. Keys in values must carry the prefix.
	ReplacePrefix(ctx context.Context, group, prefix string, values map[string]string) error
}
