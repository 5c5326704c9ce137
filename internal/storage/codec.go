package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadJSON decodes the value under key into v. It reports false, with no error,
// when the key is absent.
func LoadJSON(ctx context.Context, s SessionStore, key string, v interface{}) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode session key %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s SessionStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session key %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// PutJSON encodes v into the batch under key.
func (b *Batch) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode session key %s: %w", key, err)
	}
	b.Put(key, data)
	return nil
}
