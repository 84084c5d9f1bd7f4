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

package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisotel"

	"github.com/reqauth/reqauth/internal/cache"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
	"github.com/reqauth/reqauth/internal/x/stringx"
)

const (
	TypeRedis = "redis"

	defaultClientCacheTTL = 5 * time.Minute
)

// by intention. Used only during application bootstrap.
func init() { // nolint: gochecknoinits
	cache.Register(TypeRedis, cache.FactoryFunc(NewCache))
}

// NewCache creates a cache backed by a standalone redis instance. It allows tokens to be
// shared between several processes using the same credentials.
func NewCache(conf map[string]any) (cache.Cache, error) {
	cfg := Config{
		ClientCache: clientCache{TTL: defaultClientCacheTTL},
	}

	if err := decodeConfig(conf, &cfg); err != nil {
		return nil, err
	}

	client, err := rueidisotel.NewClient(cfg.clientOptions())
	if err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrInternal,
			"failed creating redis client").CausedBy(err)
	}

	return &Cache{c: client, ttl: cfg.ClientCache.TTL}, nil
}

type Cache struct {
	c   rueidis.Client
	ttl time.Duration
}

func (c *Cache) Start(_ context.Context) error {
	// not used for Redis.
	return nil
}

func (c *Cache) Stop(_ context.Context) error {
	c.c.Close()

	return nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.c.DoCache(ctx, c.c.B().Get().Key(key).Cache(), c.ttl).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, cache.ErrNoCacheEntry
		}

		return nil, err
	}

	return stringx.ToBytes(val), nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.c.Do(ctx, c.c.B().Set().Key(key).Value(stringx.ToString(value)).Px(ttl).Build()).Error()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.c.Do(ctx, c.c.B().Del().Key(key).Build()).Error()
}
