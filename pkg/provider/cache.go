package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger"
	"github.com/tidwall/buntdb"
)

// Cache keeps Compare responses of a provider in BuntDB.
// Every other operation is passed through.
type Cache struct {
	core.Provider
	db  *buntdb.DB
	ttl time.Duration
	log logger.Logger
}

// NewMemoryCache creates an in-memory cache around provider
func NewMemoryCache(provider core.Provider, ttl time.Duration, log logger.Logger) (*Cache, error) {
	return NewCache(provider, ":memory:", ttl, log)
}

// NewCache creates a cache stored at path. A zero ttl keeps entries forever.
func NewCache(provider core.Provider, path string, ttl time.Duration, log logger.Logger) (*Cache, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	return &Cache{
		Provider: provider,
		db:       db,
		ttl:      ttl,
		log:      log,
	}, nil
}

// cacheKey identifies a request. json.Marshal sorts map keys, so equal logic gives equal keys.
func cacheKey(req core.Request) (string, error) {
	logic, err := json.Marshal(req.Logic)
	if err != nil {
		return "", fmt.Errorf("failed to encode logic: %w", err)
	}
	return fmt.Sprintf("compare:%s:%s:%s", req.Market, req.Timeframe, logic), nil
}

// Compare returns the cached comparison for req, fetching it on a miss.
// Failed fetches are not cached.
func (c *Cache) Compare(ctx context.Context, req core.Request) (*core.Comparison, error) {
	key, err := cacheKey(req)
	if err != nil {
		return nil, err
	}

	if cached, ok := c.lookup(key); ok {
		c.log.WithField("key", key).Debug("comparison cache hit")
		return cached, nil
	}

	comparison, err := c.Provider.Compare(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store(key, comparison); err != nil {
		c.log.WithError(err).Warn("failed to cache comparison")
	}

	return comparison, nil
}

func (c *Cache) lookup(key string) (*core.Comparison, bool) {
	var content string
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		content, err = tx.Get(key)
		return err
	})

	if err != nil {
		if !errors.Is(err, buntdb.ErrNotFound) {
			c.log.WithError(err).Warn("comparison cache read failed")
		}
		return nil, false
	}

	var comparison core.Comparison
	if err := json.Unmarshal([]byte(content), &comparison); err != nil {
		c.log.WithError(err).Warn("dropping corrupted cache entry")
		return nil, false
	}

	return &comparison, true
}

func (c *Cache) store(key string, comparison *core.Comparison) error {
	content, err := json.Marshal(comparison)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison: %w", err)
	}

	var options *buntdb.SetOptions
	if c.ttl > 0 {
		options = &buntdb.SetOptions{Expires: true, TTL: c.ttl}
	}

	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(content), options)
		return err
	})
}

// Len returns the number of cached comparisons
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Purge drops every cached entry
func (c *Cache) Purge() error {
	return c.db.Update(func(tx *buntdb.Tx) error {
		return tx.DeleteAll()
	})
}

// Close closes the database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
