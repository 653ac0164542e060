package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBackend is an in-process Backend. WriteErr, when set, is returned by
// every mutating call without touching the data.
type MemoryBackend struct {
	mu       sync.Mutex
	groups   map[string]map[string]Entry
	WriteErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{groups: make(map[string]map[string]Entry)}
}

func (b *MemoryBackend) Get(ctx context.Context, group, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateKey(group, key); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.groups[group][key]
	if !ok {
		return "", ErrNotFound
	}
	return entry.Value, nil
}

func (b *MemoryBackend) Set(ctx context.Context, group, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(group, key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.groupLocked(group)[key] = Entry{Group: group, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, group, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(group, key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	entries := b.groups[group]
	if _, ok := entries[key]; !ok {
		return ErrNotFound
	}
	delete(entries, key)
	return nil
}

func (b *MemoryBackend) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filter.Group) == "" {
		return nil, ErrInvalidGroup
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0)
	for key, entry := range b.groups[filter.Group] {
		if strings.HasPrefix(key, filter.Prefix) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []Entry{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (b *MemoryBackend) ReplacePrefix(ctx context.Context, group, prefix string, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(group) == "" {
		return ErrInvalidGroup
	}
	for key := range values {
		if key == "" || !strings.HasPrefix(key, prefix) {
			return fmt.Errorf("%w: %q outside prefix %q", ErrInvalidKey, key, prefix)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	entries := b.groupLocked(group)
	for key := range entries {
		if strings.HasPrefix(key, prefix) {
			delete(entries, key)
		}
	}
	now := time.Now().UTC()
	for key, value := range values {
		entries[key] = Entry{Group: group, Key: key, Value: value, UpdatedAt: now}
	}
	return nil
}

func (b *MemoryBackend) groupLocked(group string) map[string]Entry {
	entries, ok := b.groups[group]
	if !ok {
		entries = make(map[string]Entry)
		b.groups[group] = entries
	}
	return entries
}
