package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lg/aroical-go-api/internal/kvstore"
)

// StorageError reports a failed load or save. In-memory state has already
// advanced when a save fails; callers decide whether to surface it.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// saveJSON re-serializes the whole value under key.
func saveJSON(ctx context.Context, store kvstore.Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := store.Set(ctx, key, b); err != nil {
		return &StorageError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// loadJSON decodes key into v. found is false when the key was never written.
func loadJSON(ctx context.Context, store kvstore.Store, key string, v any) (found bool, err error) {
	b, err := store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Op: "load", Key: key, Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, &StorageError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}
