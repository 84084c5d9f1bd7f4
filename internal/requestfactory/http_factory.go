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

package requestfactory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
	"github.com/reqauth/reqauth/internal/x/httpx"
)

const defaultTimeout = 30 * time.Second

type ProxyConfig struct {
	URL             string `koanf:"url"              mapstructure:"url"              validate:"omitempty,url"`
	FromEnvironment bool   `koanf:"from_environment" mapstructure:"from_environment"`
}

type Config struct {
	Timeout          time.Duration `koanf:"timeout"            mapstructure:"timeout"`
	Proxy            ProxyConfig   `koanf:"proxy"              mapstructure:"proxy"`
	SensitiveHeaders []string      `koanf:"sensitive_headers"  mapstructure:"sensitive_headers"`
}

// HTTPFactory is the default RequestFactory. The proxy to use is part of its configuration
// and never taken from process wide settings, unless explicitly requested.
type HTTPFactory struct {
	base      *http.Transport
	transport http.RoundTripper
	timeout   time.Duration
}

func New(conf Config) (*HTTPFactory, error) {
	base, err := NewTransport(conf.Proxy)
	if err != nil {
		return nil, err
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPFactory{
		base: base,
		transport: otelhttp.NewTransport(
			httpx.NewTraceRoundTripper(base, conf.SensitiveHeaders...),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("%s %s %s @%s", r.Proto, r.Method, r.URL.Path, r.URL.Hostname())
			})),
		timeout: timeout,
	}, nil
}

// NewTransport returns a clone of http.DefaultTransport, which uses the given proxy settings.
// Without any, no proxy is used at all.
func NewTransport(conf ProxyConfig) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() // nolint: forcetypeassert

	switch {
	case len(conf.URL) != 0:
		proxyURL, err := url.Parse(conf.URL)
		if err != nil {
			return nil, errorchain.NewWithMessagef(reqauth.ErrConfiguration,
				"invalid proxy url '%s'", conf.URL).CausedBy(err)
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	case conf.FromEnvironment:
		transport.Proxy = http.ProxyFromEnvironment
	default:
		transport.Proxy = nil
	}

	return transport, nil
}

// Transport returns the proxy aware transport the requests are sent with, without any
// instrumentation. Components talking to other peers on behalf of the created requests,
// like token issuers, use it to reach them the same way.
func (f *HTTPFactory) Transport() http.RoundTripper { return f.base }

func (f *HTTPFactory) Create(ctx context.Context, target *url.URL) (*Request, error) {
	if target == nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrArgument, "no target uri provided")
	}

	if !target.IsAbs() || len(target.Host) == 0 {
		return nil, errorchain.NewWithMessagef(reqauth.ErrArgument,
			"target uri '%s' is not absolute", target.Redacted())
	}

	zerolog.Ctx(ctx).Debug().Str("_target", target.Redacted()).Msg("Creating request")

	// the method is only a placeholder and is overridden by the caller
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrArgument,
			"failed to create a request instance").CausedBy(err)
	}

	return NewRequest(req, f.transport, f.timeout), nil
}
