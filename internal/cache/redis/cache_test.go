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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqauth/reqauth/internal/cache"
	"github.com/reqauth/reqauth/internal/reqauth"
)

func TestNewCache(t *testing.T) {
	t.Parallel()

	db := miniredis.RunT(t)

	for _, tc := range []struct {
		uc     string
		config map[string]any
		assert func(t *testing.T, err error, cch cache.Cache)
	}{
		{
			uc:     "empty config",
			config: map[string]any{},
			assert: func(t *testing.T, err error, _ cache.Cache) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, reqauth.ErrConfiguration)
				require.ErrorContains(t, err, "'address' is a required field")
			},
		},
		{
			uc:     "config contains unsupported properties",
			config: map[string]any{"foo": "bar"},
			assert: func(t *testing.T, err error, _ cache.Cache) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, reqauth.ErrConfiguration)
				require.ErrorContains(t, err, "failed decoding redis cache config")
			},
		},
		{
			uc: "not existing address provided",
			config: map[string]any{
				"address": "foo.local:12345",
				"tls":     map[string]any{"disabled": true},
			},
			assert: func(t *testing.T, err error, _ cache.Cache) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, reqauth.ErrInternal)
				require.ErrorContains(t, err, "failed creating redis client")
			},
		},
		{
			uc: "successful cache creation",
			config: map[string]any{
				"address":      db.Addr(),
				"client_cache": map[string]any{"disabled": true, "ttl": "1m", "size_per_connection": "1MB"},
				"tls":          map[string]any{"disabled": true},
			},
			assert: func(t *testing.T, err error, cch cache.Cache) {
				t.Helper()

				require.NoError(t, err)
				require.NotNil(t, cch)

				impl, ok := cch.(*Cache)
				require.True(t, ok)
				assert.Equal(t, time.Minute, impl.ttl)
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			// WHEN
			cch, err := NewCache(tc.config)
			if err == nil {
				defer cch.Stop(context.TODO())
			}

			// THEN
			tc.assert(t, err, cch)
		})
	}
}

func TestCacheIsRegistered(t *testing.T) {
	t.Parallel()

	// GIVEN
	db := miniredis.RunT(t)

	// WHEN
	cch, err := cache.Create(TypeRedis, map[string]any{
		"address":      db.Addr(),
		"client_cache": map[string]any{"disabled": true},
		"tls":          map[string]any{"disabled": true},
	})

	// THEN
	require.NoError(t, err)

	defer cch.Stop(context.TODO())

	assert.IsType(t, &Cache{}, cch)
}

func TestCacheUsage(t *testing.T) {
	t.Parallel()

	db := miniredis.RunT(t)
	cch, err := NewCache(map[string]any{
		"address":      db.Addr(),
		"credentials":  map[string]any{"username": "", "password": ""},
		"client_cache": map[string]any{"disabled": true},
		"tls":          map[string]any{"disabled": true},
	})
	require.NoError(t, err)

	defer cch.Stop(context.TODO())

	for _, tc := range []struct {
		uc             string
		key            string
		configureCache func(t *testing.T, cch cache.Cache)
		assert         func(t *testing.T, err error, data []byte)
	}{
		{
			uc:  "can retrieve not expired value",
			key: "foo",
			configureCache: func(t *testing.T, cch cache.Cache) {
				t.Helper()

				err := cch.Set(context.Background(), "foo", []byte("bar"), 10*time.Minute)
				require.NoError(t, err)
			},
			assert: func(t *testing.T, err error, data []byte) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, []byte("bar"), data)
			},
		},
		{
			uc:  "cannot retrieve expired value",
			key: "bar",
			configureCache: func(t *testing.T, cch cache.Cache) {
				t.Helper()

				err := cch.Set(context.Background(), "bar", []byte("baz"), 1*time.Millisecond)
				require.NoError(t, err)

				db.FastForward(200 * time.Millisecond)
			},
			assert: func(t *testing.T, err error, _ []byte) {
				t.Helper()

				require.ErrorIs(t, err, cache.ErrNoCacheEntry)
			},
		},
		{
			uc:  "cannot retrieve deleted value",
			key: "baz",
			configureCache: func(t *testing.T, cch cache.Cache) {
				t.Helper()

				err := cch.Set(context.Background(), "baz", []byte("bar"), 1*time.Second)
				require.NoError(t, err)

				err = cch.Delete(context.Background(), "baz")
				require.NoError(t, err)
			},
			assert: func(t *testing.T, err error, _ []byte) {
				t.Helper()

				require.ErrorIs(t, err, cache.ErrNoCacheEntry)
			},
		},
		{
			uc:  "cannot retrieve not existing value",
			key: "qux",
			configureCache: func(t *testing.T, _ cache.Cache) {
				t.Helper()
			},
			assert: func(t *testing.T, err error, _ []byte) {
				t.Helper()

				require.ErrorIs(t, err, cache.ErrNoCacheEntry)
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			// WHEN
			tc.configureCache(t, cch)

			data, err := cch.Get(context.Background(), tc.key)

			// THEN
			tc.assert(t, err, data)
		})
	}
}
