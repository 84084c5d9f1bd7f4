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
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/cache"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/tokensource"
	"github.com/reqauth/reqauth/internal/validation"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

const (
	TypeAnonymous               = "anonymous"
	TypeDeveloperKey            = "developer_key"
	TypeAPIKey                  = "api_key"
	TypeBasicAuth               = "basic_auth"
	TypeTwoLeggedOAuth          = "oauth_two_legged"
	TypeThreeLeggedOAuth        = "oauth_three_legged"
	TypeClientLogin             = "client_login"
	TypeOAuth2ClientCredentials = "oauth2_client_credentials"
)

// Dependencies are the collaborators shared by all schemes created by NewScheme.
type Dependencies struct {
	// Application is sent to token issuers, which want to know the requesting application.
	Application string
	// Cache holds the tokens of token based schemes. A private in-memory cache is used if nil.
	Cache   cache.Cache
	Metrics *tokensource.Metrics
	Logger  zerolog.Logger
	// Transport is used to reach token issuers. It should be the transport of the request
	// factory, so that issuers are reached via the same proxy as the services.
	Transport http.RoundTripper
}

// NewScheme creates the scheme of the given type from its configuration.
func NewScheme(deps Dependencies, typ string, conf map[string]any) (authenticator.Scheme, error) {
	switch typ {
	case TypeAnonymous:
		if len(conf) != 0 {
			return nil, errorchain.NewWithMessagef(reqauth.ErrConfiguration,
				"'%s' scheme does not support any configuration", typ)
		}

		return authenticator.Anonymous{}, nil
	case TypeDeveloperKey:
		header := &DeveloperKeyHeader{}
		if len(conf) != 0 {
			if err := decodeStrategy(typ, header, conf); err != nil {
				return nil, err
			}
		}

		return WithDeveloperKey(authenticator.Anonymous{}, header), nil
	case TypeAPIKey:
		strategy := &APIKey{}
		if err := decodeRequired(typ, strategy, conf); err != nil {
			return nil, err
		}

		return strategy, nil
	case TypeBasicAuth:
		strategy := &BasicAuth{}
		if err := decodeRequired(typ, strategy, conf); err != nil {
			return nil, err
		}

		return strategy, nil
	case TypeTwoLeggedOAuth:
		return newTwoLeggedOAuth(deps, conf)
	case TypeThreeLeggedOAuth:
		return newThreeLeggedOAuth(deps, conf)
	case TypeClientLogin:
		return newClientLogin(deps, conf)
	case TypeOAuth2ClientCredentials:
		return newOAuth2ClientCredentials(deps, conf)
	default:
		return nil, errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"unsupported authentication type: '%s'", typ)
	}
}

func decodeRequired(name string, strategy any, config map[string]any) error {
	if len(config) == 0 {
		return errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"'%s' scheme requires 'config' property to be set", name)
	}

	return decodeStrategy(name, strategy, config)
}

func decodeStrategy(name string, strategy any, config map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:      strategy,
		ErrorUnused: true,
	})
	if err != nil {
		return errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"failed to unmarshal '%s' scheme config", name).CausedBy(err)
	}

	if err = dec.Decode(config); err != nil {
		return errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"failed to unmarshal '%s' scheme config", name).CausedBy(err)
	}

	if err = validation.ValidateStruct(strategy); err != nil {
		return errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"failed validating '%s' scheme config", name).CausedBy(err)
	}

	return nil
}

func warnIfInsecure(logger zerolog.Logger, name, tokenURL string) {
	if strings.HasPrefix(tokenURL, "http://") {
		logger.Warn().Msgf("No TLS configured for the %s scheme. NEVER DO THIS IN PRODUCTION!!!", name)
	}
}
