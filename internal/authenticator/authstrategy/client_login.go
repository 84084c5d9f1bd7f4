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

package authstrategy

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/clientlogin"
	"github.com/reqauth/reqauth/internal/tokensource"
)

const clientLoginScheme = "GoogleLogin auth="

// ClientLogin authenticates requests with a token obtained by exchanging the configured
// account credentials at the ClientLogin service.
type ClientLogin struct {
	source *tokensource.Source
}

func newClientLogin(deps Dependencies, conf map[string]any) (*ClientLogin, error) {
	var cfg struct {
		clientlogin.Config `mapstructure:",squash"`

		Source       string         `mapstructure:"source"`
		TTL          *time.Duration `mapstructure:"cache_ttl"`
		FetchTimeout time.Duration  `mapstructure:"fetch_timeout"`
	}

	if err := decodeRequired(TypeClientLogin, &cfg, conf); err != nil {
		return nil, err
	}

	warnIfInsecure(deps.Logger, TypeClientLogin, cfg.TokenURL())

	cfg.Transport = deps.Transport

	application := cfg.Source
	if len(application) == 0 {
		application = deps.Application
	}

	src, err := tokensource.New(TypeClientLogin, cfg.CacheKey(), cfg.Fetcher(application),
		tokensource.WithCache(deps.Cache),
		tokensource.WithMetrics(deps.Metrics),
		tokensource.WithTTL(cfg.TTL),
		tokensource.WithFetchTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &ClientLogin{source: src}, nil
}

func (c *ClientLogin) ApplyToURI(_ context.Context, _ authenticator.Identity, target *url.URL) (*url.URL, error) {
	return target, nil
}

func (c *ClientLogin) ApplyToRequest(ctx context.Context, _ authenticator.Identity, req *http.Request) error {
	zerolog.Ctx(ctx).Debug().Msg("Applying client_login scheme to authenticate request")

	token, err := c.source.Token(ctx)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", clientLoginScheme+token.Value)

	return nil
}

func (c *ClientLogin) InvalidateToken(ctx context.Context, rejected *http.Request) {
	value, found := strings.CutPrefix(rejected.Header.Get("Authorization"), clientLoginScheme)
	if !found {
		return
	}

	c.source.Invalidate(ctx, value)
}
