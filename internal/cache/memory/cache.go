// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/jellydator/ttlcache/v3"

	"github.com/reqauth/reqauth/internal/cache"
)

const (
	TypeMemory = "memory"

	// tokens are a few hundred bytes, so this holds thousands of them
	defaultMaxMemory = bytesize.MB

	// bookkeeping ttlcache keeps per item besides key and value
	itemOverhead = 184
)

// by intention. Used only during application bootstrap.
func init() { // nolint: gochecknoinits
	cache.Register(TypeMemory, cache.FactoryFunc(NewCache))
}

type Config struct {
	MaxEntries uint64             `mapstructure:"max_entries"`
	MaxMemory  *bytesize.ByteSize `mapstructure:"max_memory"`
}

func (c Config) maxMemory() uint64 {
	if c.MaxMemory == nil {
		return uint64(defaultMaxMemory)
	}

	return uint64(*c.MaxMemory)
}

// Cache keeps tokens in process memory. Expired tokens are never returned. They are evicted
// while the cache is started.
type Cache struct {
	c       *ttlcache.Cache[string, []byte]
	running atomic.Bool
}

func NewCache(conf map[string]any) (cache.Cache, error) {
	var cfg Config

	if len(conf) != 0 {
		if err := decodeConfig(conf, &cfg); err != nil {
			return nil, err
		}
	}

	cost := func(item ttlcache.CostItem[string, []byte]) uint64 {
		return uint64(len(item.Key) + len(item.Value) + itemOverhead) //nolint:gosec
	}

	return &Cache{
		c: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
			ttlcache.WithCapacity[string, []byte](cfg.MaxEntries),
			ttlcache.WithMaxCost[string, []byte](cfg.maxMemory(), cost),
		),
	}, nil
}

// Start runs the eviction of expired entries until Stop is called. Repeated calls are no-ops.
func (c *Cache) Start(_ context.Context) error {
	if c.running.CompareAndSwap(false, true) {
		go c.c.Start()
	}

	return nil
}

func (c *Cache) Stop(_ context.Context) error {
	if c.running.CompareAndSwap(true, false) {
		c.c.Stop()
	}

	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	if item := c.c.Get(key); item != nil && !item.IsExpired() {
		return item.Value(), nil
	}

	return nil, cache.ErrNoCacheEntry
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.Set(key, value, ttl)

	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Delete(key)

	return nil
}
