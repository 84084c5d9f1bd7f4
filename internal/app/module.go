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

package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/authenticator/authstrategy"
	"github.com/reqauth/reqauth/internal/cache"
	cachemodule "github.com/reqauth/reqauth/internal/cache/module"
	"github.com/reqauth/reqauth/internal/config"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/requestfactory"
	"github.com/reqauth/reqauth/internal/tokensource"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

// Module provides the authenticator configured by the supplied *config.Configuration. It
// expects a zerolog.Logger to be supplied as well.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	cachemodule.Module,
	fx.Provide(
		newRegistry,
		newMetrics,
		newRequestFactory,
		newScheme,
		newAuthenticator,
	),
)

func newRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()

	return reg, reg
}

func newMetrics(registerer prometheus.Registerer) *tokensource.Metrics {
	return tokensource.NewMetrics(tokensource.WithRegisterer(registerer))
}

func newRequestFactory(conf *config.Configuration) (*requestfactory.HTTPFactory, error) {
	return requestfactory.New(conf.RequestFactory)
}

func newScheme(
	conf *config.Configuration,
	cch cache.Cache,
	metrics *tokensource.Metrics,
	factory *requestfactory.HTTPFactory,
	logger zerolog.Logger,
) (authenticator.Scheme, error) {
	header := conf.Auth.DeveloperKeyHeader
	if header != nil && conf.Auth.Type == authstrategy.TypeDeveloperKey {
		return nil, errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"developer_key_header is not supported for '%s' scheme, configure the header in its config",
			authstrategy.TypeDeveloperKey)
	}

	scheme, err := authstrategy.NewScheme(authstrategy.Dependencies{
		Application: conf.Application,
		Cache:       cch,
		Metrics:     metrics,
		Logger:      logger,
		Transport:   factory.Transport(),
	}, conf.Auth.Type, conf.Auth.Config)
	if err != nil {
		return nil, err
	}

	if header != nil {
		scheme = authstrategy.WithDeveloperKey(scheme, &authstrategy.DeveloperKeyHeader{
			Name:   header.Name,
			Prefix: header.Prefix,
		})
	}

	return scheme, nil
}

func newAuthenticator(
	conf *config.Configuration,
	scheme authenticator.Scheme,
	factory *requestfactory.HTTPFactory,
	logger zerolog.Logger,
) (*authenticator.Authenticator, error) {
	auth, err := authenticator.New(conf.Application, scheme,
		authenticator.WithDeveloperKey(conf.DeveloperKey),
		authenticator.WithRequestFactory(factory),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("_scheme", conf.Auth.Type).
		Str("_token_cache", conf.TokenCache.Type).
		Msg("Authenticator created")

	return auth, nil
}
