// Package kvstore persists opaque blobs by key. Every backend implements the
// same three-call contract so the domain managers never know where their
// bytes live.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the key-value contract. No transactions, no schema.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open picks a backend from the URL scheme:
//
//	memory://            in-process map (tests, demos)
//	file:///var/aroical  one file per key
//	sqlite:///data/kv.db local SQLite database
//	postgres://...       kv_store table (see db/ migrations)
//	redis://...          plain keys under prefix
//	mongodb://...        kv_store collection
func Open(ctx context.Context, rawURL, prefix string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse storage url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(localPath(u))
	case "sqlite":
		return OpenSQLite(ctx, localPath(u))
	case "postgres", "postgresql":
		return OpenPostgres(ctx, rawURL)
	case "redis", "rediss":
		return OpenRedis(ctx, rawURL, prefix)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, rawURL, prefix)
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// localPath accepts both file:///abs/path and file://./relative/path.
func localPath(u *url.URL) string {
	if u.Host != "" {
		return u.Host + u.Path
	}
	return u.Path
}
