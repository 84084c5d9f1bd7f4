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

package authenticator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"

	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/requestfactory"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

var ErrNoRequestFactory = errors.New("no request factory configured")

// Authenticator creates requests augmented with the credentials of the configured Scheme.
//
// An Authenticator follows a configure-then-freeze contract: SetDeveloperKey and
// SetRequestFactory must only be used before the instance is shared between goroutines.
// After that, CreateRequest and Send are safe for concurrent use.
type Authenticator struct {
	application  string
	developerKey string
	factory      requestfactory.RequestFactory
	scheme       Scheme
}

type Option func(a *Authenticator)

func WithDeveloperKey(key string) Option {
	return func(a *Authenticator) {
		a.developerKey = key
	}
}

// WithRequestFactory replaces the default request factory. Passing nil leaves the
// authenticator without a factory, so every attempt to create a request fails.
func WithRequestFactory(factory requestfactory.RequestFactory) Option {
	return func(a *Authenticator) {
		a.factory = factory
	}
}

func New(application string, scheme Scheme, opts ...Option) (*Authenticator, error) {
	factory, err := requestfactory.New(requestfactory.Config{})
	if err != nil {
		return nil, err
	}

	auth := &Authenticator{
		application: application,
		factory:     factory,
		scheme:      scheme,
	}

	if auth.scheme == nil {
		auth.scheme = Anonymous{}
	}

	for _, opt := range opts {
		opt(auth)
	}

	return auth, nil
}

func (a *Authenticator) Application() string { return a.application }

func (a *Authenticator) DeveloperKey() string { return a.developerKey }

func (a *Authenticator) SetDeveloperKey(key string) { a.developerKey = key }

func (a *Authenticator) RequestFactory() requestfactory.RequestFactory { return a.factory }

func (a *Authenticator) SetRequestFactory(factory requestfactory.RequestFactory) { a.factory = factory }

func (a *Authenticator) Scheme() Scheme { return a.scheme }

// CreateRequest returns a request for the given method and target, which has the credentials
// of the configured scheme applied and automatic redirects disabled. Errors returned by the
// request factory are passed through as is.
func (a *Authenticator) CreateRequest(
	ctx context.Context,
	method string,
	target *url.URL,
) (*requestfactory.Request, error) {
	logger := zerolog.Ctx(ctx)

	// without a factory no request can be created, regardless of the input
	if a.factory == nil {
		return nil, errorchain.New(reqauth.ErrConfiguration).CausedBy(ErrNoRequestFactory)
	}

	if target == nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrArgument, "no target uri provided")
	}

	effectiveTarget, err := a.scheme.ApplyToURI(ctx, a, target)
	if err != nil {
		return nil, err
	}

	req, err := a.factory.Create(ctx, effectiveTarget)
	if err != nil {
		return nil, err
	}

	if !isValidMethod(method) {
		return nil, errorchain.NewWithMessagef(reqauth.ErrArgument, "invalid http method '%s'", method)
	}

	req.AllowAutoRedirect = false
	req.Method = method

	logger.Debug().Msg("Authenticating request")

	if err = a.scheme.ApplyToRequest(ctx, a, req.Request); err != nil {
		return nil, err
	}

	if req.Method != method {
		return nil, errorchain.NewWithMessagef(reqauth.ErrInternal,
			"authentication changed the request method from %s to %s", method, req.Method)
	}

	req.AllowAutoRedirect = false

	return req, nil
}

// Send creates the request and performs it. If the response status is 401 and the scheme
// applies cached tokens, the token is dropped and the request is repeated once with a fresh
// one. A second rejection is reported as an authentication error.
func (a *Authenticator) Send(ctx context.Context, method string, target *url.URL, body []byte) (*http.Response, error) {
	resp, req, err := a.send(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	invalidator, ok := a.scheme.(TokenInvalidator)
	if !ok || resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	discard(resp)

	zerolog.Ctx(ctx).Debug().Msg("Token rejected by the service. Retrying with a new one")

	invalidator.InvalidateToken(ctx, req.Request)

	resp, req, err = a.send(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		invalidator.InvalidateToken(ctx, req.Request)

		return nil, errorchain.NewWithMessagef(reqauth.ErrAuthentication,
			"request to %s rejected even after token refresh", target.Redacted())
	}

	return resp, nil
}

func (a *Authenticator) send(
	ctx context.Context,
	method string,
	target *url.URL,
	body []byte,
) (*http.Response, *requestfactory.Request, error) {
	req, err := a.CreateRequest(ctx, method, target)
	if err != nil {
		return nil, nil, err
	}

	req.SetBody(body)

	resp, err := req.Do()
	if err != nil {
		var clientErr *url.Error
		if errors.As(err, &clientErr) && clientErr.Timeout() {
			return nil, nil, errorchain.New(reqauth.ErrCommunicationTimeout).CausedBy(err)
		}

		return nil, nil, errorchain.New(reqauth.ErrCommunication).CausedBy(err)
	}

	return resp, req, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func isValidMethod(method string) bool {
	return len(method) != 0 && strings.IndexFunc(method, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}
