// Package cache implements a TTL key-value cache on top of BadgerDB.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/metrics"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

var ErrMiss = errors.New("cache miss")

type Cache struct {
	db  *badger.DB
	ttl time.Duration
	log *slog.Logger
}

// Open opens a badger database at path. An empty path keeps all data in memory.
func Open(path string, ttl time.Duration, log *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log.With("component", "badger")})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return New(db, ttl, log), nil
}

func New(db *badger.DB, ttl time.Duration, log *slog.Logger) *Cache {
	return &Cache{db: db, ttl: ttl, log: log}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get decodes the value stored under key into dst. ErrMiss is returned when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string, dst any) error {
	const op = "cache.Cache.Get"
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	switch {
	case err == nil:
		metrics.CacheOperationsTotal.WithLabelValues("get", "hit").Inc()
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		metrics.CacheOperationsTotal.WithLabelValues("get", "miss").Inc()
		return ErrMiss
	}
	metrics.CacheOperationsTotal.WithLabelValues("get", "error").Inc()
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	const op = "cache.Cache.Set"
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(c.ttl))
	})
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.CacheOperationsTotal.WithLabelValues("set", "success").Inc()
	return nil
}

// DeletePrefix removes every key starting with prefix and reports how many were removed.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	const op = "cache.Cache.DeletePrefix"
	log := c.log.With("op", op, "prefix", prefix)
	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("invalidate", "error").Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		metrics.CacheOperationsTotal.WithLabelValues("invalidate", "success").Inc()
		return 0, nil
	}
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			metrics.CacheOperationsTotal.WithLabelValues("invalidate", "error").Inc()
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := wb.Flush(); err != nil {
		log.Error("failed to flush deletes", sl.Err(err))
		metrics.CacheOperationsTotal.WithLabelValues("invalidate", "error").Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.CacheOperationsTotal.WithLabelValues("invalidate", "success").Inc()
	metrics.CacheInvalidatedKeysTotal.Add(float64(len(keys)))
	log.Debug("cache keys invalidated", "count", len(keys))
	return len(keys), nil
}

type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
