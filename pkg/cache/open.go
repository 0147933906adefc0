package cache

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend   string // one of the Backend constants; empty means file
	Dir       string // directory for file and sqlite backends
	RedisAddr string
	Prefix    string // redis key prefix
}

// Open creates the configured cache backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		c, err = NewFileCache(FilePath(opts.Dir))
	case BackendSQLite:
		c, err = NewSQLiteCache(SQLitePath(opts.Dir))
	case BackendRedis:
		c, err = NewRedisCache(ctx, RedisConfig{Addr: opts.RedisAddr, Prefix: opts.Prefix})
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FilePath returns the directory the file backend uses under dir.
func FilePath(dir string) string { return filepath.Join(dir, "licenses") }

// SQLitePath returns the database the sqlite backend uses under dir.
func SQLitePath(dir string) string { return filepath.Join(dir, "licenses.db") }
