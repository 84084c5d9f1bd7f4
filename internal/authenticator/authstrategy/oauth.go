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

	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/oauth1"
)

const requestorIDParameter = "xoauth_requestor_id"

type OAuthConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key"    validate:"required"`
	ConsumerSecret string `mapstructure:"consumer_secret" validate:"required"`
}

// OAuth holds the consumer credentials of the OAuth 1.0 family of schemes. The credentials
// are fixed at construction.
type OAuth struct {
	consumer oauth1.Consumer
	signer   *oauth1.Signer
}

func newOAuth(conf OAuthConfig) OAuth {
	consumer := oauth1.NewConsumer(conf.ConsumerKey, conf.ConsumerSecret)

	return OAuth{consumer: consumer, signer: oauth1.NewSigner(consumer)}
}

func (o *OAuth) ConsumerKey() string { return o.consumer.Key() }

func (o *OAuth) ConsumerSecret() string { return o.consumer.Secret() }

func (o *OAuth) sign(ctx context.Context, req *http.Request, token *oauth1.Token) error {
	zerolog.Ctx(ctx).Debug().Msg("Signing request")

	return o.signer.Sign(req, token)
}

// TwoLeggedOAuth signs requests with the consumer credentials only and acts on behalf of
// the configured user, which is identified by the xoauth_requestor_id query parameter.
type TwoLeggedOAuth struct {
	OAuth

	requestorID string
}

func newTwoLeggedOAuth(_ Dependencies, conf map[string]any) (*TwoLeggedOAuth, error) {
	var cfg struct {
		OAuthConfig `mapstructure:",squash"`

		RequestorID string `mapstructure:"requestor_id" validate:"required"`
	}

	if err := decodeRequired(TypeTwoLeggedOAuth, &cfg, conf); err != nil {
		return nil, err
	}

	return &TwoLeggedOAuth{OAuth: newOAuth(cfg.OAuthConfig), requestorID: cfg.RequestorID}, nil
}

func (o *TwoLeggedOAuth) RequestorID() string { return o.requestorID }

// ApplyToURI sets the requestor id parameter. Any existing one is replaced. All other parts
// of the query are kept as they are.
func (o *TwoLeggedOAuth) ApplyToURI(_ context.Context, _ authenticator.Identity, target *url.URL) (*url.URL, error) {
	return withQueryParameter(target, requestorIDParameter,
		strings.ReplaceAll(url.QueryEscape(o.requestorID), "%40", "@")), nil
}

func (o *TwoLeggedOAuth) ApplyToRequest(ctx context.Context, _ authenticator.Identity, req *http.Request) error {
	return o.sign(ctx, req, nil)
}

// ThreeLeggedOAuth signs requests with the consumer credentials and an access token the user
// granted to the application.
type ThreeLeggedOAuth struct {
	OAuth

	token oauth1.Token
}

func newThreeLeggedOAuth(_ Dependencies, conf map[string]any) (*ThreeLeggedOAuth, error) {
	var cfg struct {
		OAuthConfig `mapstructure:",squash"`

		Token oauth1.Token `mapstructure:"token" validate:"required"`
	}

	if err := decodeRequired(TypeThreeLeggedOAuth, &cfg, conf); err != nil {
		return nil, err
	}

	return &ThreeLeggedOAuth{OAuth: newOAuth(cfg.OAuthConfig), token: cfg.Token}, nil
}

func (o *ThreeLeggedOAuth) ApplyToURI(_ context.Context, _ authenticator.Identity, target *url.URL) (*url.URL, error) {
	return target, nil
}

func (o *ThreeLeggedOAuth) ApplyToRequest(ctx context.Context, _ authenticator.Identity, req *http.Request) error {
	return o.sign(ctx, req, &o.token)
}
