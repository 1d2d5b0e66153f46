/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// Cache is a typed, goroutine-safe TTL cache.
type Cache[V any] struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewCache creates a new cache with a TTL (time-to-live). Expired items are purged every two TTLs.
func NewCache[V any](defaultTTL time.Duration) *Cache[V] {
	return &Cache[V]{
		items: gocache.New(defaultTTL, 2*defaultTTL),
		ttl:   defaultTTL,
	}
}

// Set adds an item to the cache
func (c *Cache[V]) Set(key string, value V) {

	log.GetLogger().Debug(fmt.Sprint("Setting cache for key: ", key))
	c.items.Set(key, value, c.ttl)
}

// Get retrieves an item from the cache
func (c *Cache[V]) Get(key string) (V, bool) {

	var zero V
	raw, found := c.items.Get(key)
	if !found {
		log.GetLogger().Debug(fmt.Sprint("Cache not found for key: ", key))
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Len returns the number of items, including expired ones not yet purged.
func (c *Cache[V]) Len() int {
	return c.items.ItemCount()
}

// Flush removes all items.
func (c *Cache[V]) Flush() {
	c.items.Flush()
}
