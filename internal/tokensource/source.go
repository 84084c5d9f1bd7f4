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

package tokensource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/reqauth/reqauth/internal/cache"
	"github.com/reqauth/reqauth/internal/cache/memory"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

const (
	defaultLeeway       = 5 * time.Second
	defaultTTL          = 15 * time.Minute
	defaultFetchTimeout = 30 * time.Second
)

type Option func(s *Source)

// WithCache sets the cache tokens are stored in. Sources sharing a cache must use distinct keys.
func WithCache(cch cache.Cache) Option {
	return func(s *Source) {
		if cch != nil {
			s.cache = cch
		}
	}
}

// WithTTL sets the maximum time a token is cached. If the token expires earlier, its expiry
// (minus leeway) takes precedence. A TTL of 0 disables caching.
func WithTTL(ttl *time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

// WithFetchTimeout bounds the time a single fetch may take. It applies regardless of the
// deadline of the caller, which triggered the fetch.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Source) {
		if timeout > 0 {
			s.fetchTimeout = timeout
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *Source) {
		s.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// Source hands out tokens obtained by a Fetcher and caches them. Concurrent requests for a
// token, while none is cached, are collapsed into a single fetch. The fetch itself is detached
// from the cancellation of the caller, which triggered it, so that all other waiting callers
// still get the result. Source is safe for concurrent use.
type Source struct {
	name         string
	key          string
	fetcher      Fetcher
	cache        cache.Cache
	ttl          *time.Duration
	fetchTimeout time.Duration
	metrics      *Metrics
	now          func() time.Time

	flight singleflight.Group
	// serializes cache updates of this source
	mu sync.Mutex
}

// New creates a token source. The name is used in logs and metrics, the key identifies the
// token in the cache and should be derived from the credentials used to obtain it.
func New(name, key string, fetcher Fetcher, opts ...Option) (*Source, error) {
	if fetcher == nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrInternal, "no token fetcher provided")
	}

	src := &Source{
		name:         name,
		key:          "reqauth/token/" + name + "/" + key,
		fetcher:      fetcher,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(src)
	}

	if src.cache == nil {
		cch, err := memory.NewCache(nil)
		if err != nil {
			return nil, err
		}

		src.cache = cch
	}

	return src, nil
}

func (s *Source) Name() string { return s.name }

// Token returns the cached token, or fetches a new one if there is no valid token in the cache.
func (s *Source) Token(ctx context.Context) (*Token, error) {
	logger := zerolog.Ctx(ctx)

	if tok := s.cached(ctx); tok != nil {
		logger.Debug().Str("_source", s.name).Msg("Reusing token from cache")
		s.metrics.cacheHit(s.name)

		return tok, nil
	}

	resCh := s.flight.DoChan(s.key, func() (any, error) {
		// another flight might have finished between the cache lookup above and this one
		if tok := s.cached(ctx); tok != nil {
			s.metrics.cacheHit(s.name)

			return tok, nil
		}

		logger.Debug().Str("_source", s.name).Msg("Fetching new token")

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		tok, err := s.fetcher.Fetch(fetchCtx)
		s.metrics.fetched(s.name, err)

		if err != nil {
			return nil, err
		}

		s.store(fetchCtx, tok)

		return tok, nil
	})

	select {
	case <-ctx.Done():
		return nil, errorchain.NewWithMessage(reqauth.ErrCommunication,
			"waiting for token aborted").CausedBy(ctx.Err())
	case res := <-resCh:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Token), nil // nolint: forcetypeassert
	}
}

// Invalidate drops the cached token if it is still the rejected one. A token, which has been
// refreshed in the meantime, is kept.
func (s *Source) Invalidate(ctx context.Context, rejected string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.cached(ctx)
	if tok == nil || tok.Value != rejected {
		return
	}

	zerolog.Ctx(ctx).Debug().Str("_source", s.name).Msg("Dropping rejected token from cache")

	if err := s.cache.Delete(ctx, s.key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_source", s.name).Msg("Failed to drop token from cache")
	}
}

func (s *Source) cached(ctx context.Context) *Token {
	entry, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNoCacheEntry) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("_source", s.name).Msg("Failed to read token from cache")
		}

		return nil
	}

	var tok Token
	if err = json.Unmarshal(entry, &tok); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_source", s.name).Msg("Ignoring malformed cache entry")

		return nil
	}

	if tok.expired(s.now(), defaultLeeway) {
		return nil
	}

	return &tok
}

func (s *Source) store(ctx context.Context, tok *Token) {
	ttl := s.cacheTTL(tok)
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(tok)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_source", s.name).Msg("Failed to serialize token")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.cache.Set(ctx, s.key, data, ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("_source", s.name).Msg("Failed to cache token")
	}
}

func (s *Source) cacheTTL(tok *Token) time.Duration {
	expiryTTL := x.IfThenElseExec(!tok.Expiry.IsZero(),
		func() time.Duration { return max(tok.Expiry.Sub(s.now())-defaultLeeway, 0) },
		func() time.Duration { return 0 })

	switch {
	case s.ttl != nil && *s.ttl <= 0:
		return 0
	case s.ttl != nil && tok.Expiry.IsZero():
		return *s.ttl
	case s.ttl != nil:
		return min(*s.ttl, expiryTTL)
	case tok.Expiry.IsZero():
		return defaultTTL
	default:
		return expiryTTL
	}
}
