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
	"github.com/reqauth/reqauth/internal/oauth2/clientcredentials"
	"github.com/reqauth/reqauth/internal/tokensource"
)

const defaultTokenType = "Bearer"

type HeaderConfig struct {
	Name   string `mapstructure:"name"   validate:"required,header_name"`
	Scheme string `mapstructure:"scheme"`
}

// OAuth2ClientCredentials authenticates requests with an access token obtained via the
// OAuth2 client credentials grant.
type OAuth2ClientCredentials struct {
	source *tokensource.Source
	header *HeaderConfig
}

func newOAuth2ClientCredentials(deps Dependencies, conf map[string]any) (*OAuth2ClientCredentials, error) {
	var cfg struct {
		clientcredentials.Config `mapstructure:",squash"`

		Header       *HeaderConfig `mapstructure:"header"`
		FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	}

	if err := decodeRequired(TypeOAuth2ClientCredentials, &cfg, conf); err != nil {
		return nil, err
	}

	warnIfInsecure(deps.Logger, TypeOAuth2ClientCredentials, cfg.TokenURL)

	cfg.Transport = deps.Transport

	src, err := tokensource.New(TypeOAuth2ClientCredentials, cfg.CacheKey(), cfg.Fetcher(),
		tokensource.WithCache(deps.Cache),
		tokensource.WithMetrics(deps.Metrics),
		tokensource.WithTTL(cfg.TTL),
		tokensource.WithFetchTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &OAuth2ClientCredentials{source: src, header: cfg.Header}, nil
}

func (c *OAuth2ClientCredentials) ApplyToURI(
	_ context.Context, _ authenticator.Identity, target *url.URL,
) (*url.URL, error) {
	return target, nil
}

func (c *OAuth2ClientCredentials) ApplyToRequest(
	ctx context.Context, _ authenticator.Identity, req *http.Request,
) error {
	zerolog.Ctx(ctx).Debug().Msg("Applying oauth2_client_credentials scheme to authenticate request")

	token, err := c.source.Token(ctx)
	if err != nil {
		return err
	}

	req.Header.Set(c.headerName(), c.headerScheme(token)+" "+token.Value)

	return nil
}

func (c *OAuth2ClientCredentials) InvalidateToken(ctx context.Context, rejected *http.Request) {
	_, value, found := strings.Cut(rejected.Header.Get(c.headerName()), " ")
	if !found {
		return
	}

	c.source.Invalidate(ctx, value)
}

func (c *OAuth2ClientCredentials) headerName() string {
	if c.header != nil {
		return c.header.Name
	}

	return "Authorization"
}

func (c *OAuth2ClientCredentials) headerScheme(token *tokensource.Token) string {
	switch {
	case c.header != nil && len(c.header.Scheme) != 0:
		return c.header.Scheme
	case len(token.Type) != 0:
		return token.Type
	default:
		return defaultTokenType
	}
}
