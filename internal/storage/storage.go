// Package storage persists the study state as JSON documents under string
// keys. Every backend satisfies Repository; typed access goes through
// GetJSON, SetJSON and UpdateJSON.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("corrupt value")
)

// UpdateFunc receives the current raw value (nil when absent) and returns
// the value to store.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update applies fn atomically with respect to other Update calls on
	// the same key.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Keys lists keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// GetJSON decodes the value at key into a T. found is false for a missing
// key. A value that does not decode yields an error wrapping ErrCorrupt.
func GetJSON[T any](ctx context.Context, r Repository, key string) (T, bool, error) {
	var v T
	raw, err := r.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, true, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return v, true, nil
}

func SetJSON[T any](ctx context.Context, r Repository, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// UpdateJSON loads the value at key (zero when missing), applies fn and
// stores the result. A corrupt stored value is discarded and fn starts
// from zero.
func UpdateJSON[T any](ctx context.Context, r Repository, key string, fn func(*T) error) (T, error) {
	var out T
	err := r.Update(ctx, key, func(current []byte, found bool) ([]byte, error) {
		var v T
		if found {
			if err := json.Unmarshal(current, &v); err != nil {
				log.Printf("WARN: [storage] discarding corrupt value at %s: %v", key, err)
				var zero T
				v = zero
			}
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		out = v
		return json.Marshal(v)
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("update %s: %w", key, err)
	}
	return out, nil
}
