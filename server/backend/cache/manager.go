/*
 * Copyright 2026 The DocVault Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides cache management for DocVault backend.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/docvault/docvault/api/types"
	"github.com/docvault/docvault/server/logging"
)

const (
	// DefaultExpiration is the TTL of cached entries when none is configured.
	DefaultExpiration = 10 * time.Minute

	// DefaultCleanupInterval is how often expired entries are purged.
	DefaultCleanupInterval = 30 * time.Minute
)

// Manager manages all caches used in the backend.
type Manager struct {
	// Doctype caches doctype definitions by name.
	Doctype *Expiring[*types.Doctype]
}

// Options contains configuration for cache manager.
type Options struct {
	DoctypeCacheTTL time.Duration
}

// New creates a new cache manager.
func New(opts Options) *Manager {
	ttl := opts.DoctypeCacheTTL
	if ttl <= 0 {
		ttl = DefaultExpiration
	}

	return &Manager{
		Doctype: NewExpiring[*types.Doctype]("doctype", ttl, DefaultCleanupInterval),
	}
}

// Expiring is a string keyed in-memory cache whose entries expire after a
// TTL. It counts hits and misses.
type Expiring[V any] struct {
	name  string
	cache *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewExpiring creates a new cache with the given TTL and cleanup interval.
func NewExpiring[V any](name string, ttl, cleanupInterval time.Duration) *Expiring[V] {
	return &Expiring[V]{
		name:  name,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves an item from the cache by its key.
func (c *Expiring[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		c.misses.Add(1)
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		logging.From(ctx).Errorf("%s cache: wrong type for key %q", c.name, key)
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return v, true
}

// Add stores the value with the default TTL.
func (c *Expiring[V]) Add(key string, value V) {
	c.cache.SetDefault(key, value)
}

// Remove evicts the given key.
func (c *Expiring[V]) Remove(key string) {
	c.cache.Delete(key)
}

// Purge evicts every entry.
func (c *Expiring[V]) Purge() {
	c.cache.Flush()
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *Expiring[V]) Len() int {
	return c.cache.ItemCount()
}

// Stats returns the number of hits and misses so far.
func (c *Expiring[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
