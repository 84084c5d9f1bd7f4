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

package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/ybbus/httpretry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
	"github.com/reqauth/reqauth/internal/x/httpx"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 250 * time.Millisecond
)

// Endpoint describes an issuer tokens are requested from.
type Endpoint struct {
	URL     string            `mapstructure:"url"     validate:"required,url"`
	Method  string            `mapstructure:"method"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Retry   *Retry            `mapstructure:"retry"`
	Headers map[string]string `mapstructure:"headers"`

	// Transport is used to reach the endpoint. If not set, the endpoint is reached directly,
	// without any proxy.
	Transport http.RoundTripper `mapstructure:"-"`
}

// Retry configures the single retry of a request, which failed due to a transport error or
// a server side (5xx) error. Rejections of the sent credentials are never retried.
type Retry struct {
	Disabled bool          `mapstructure:"disabled"`
	Delay    time.Duration `mapstructure:"delay"`
}

type ResponseReader func(resp *http.Response) ([]byte, error)

func (e Endpoint) CreateClient(peerName string) *http.Client {
	client := &http.Client{
		Timeout: e.timeout(),
		Transport: otelhttp.NewTransport(
			httpx.NewTraceRoundTripper(e.transport()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("%s %s %s @%s", r.Proto, r.Method, r.URL.Path, peerName)
			})),
	}

	if e.Retry != nil && e.Retry.Disabled {
		return client
	}

	delay := defaultRetryDelay
	if e.Retry != nil && e.Retry.Delay > 0 {
		delay = e.Retry.Delay
	}

	return httpretry.NewCustomClient(
		client,
		httpretry.WithMaxRetryCount(1),
		httpretry.WithRetryPolicy(isTransient),
		httpretry.WithBackoffPolicy(httpretry.ExponentialBackoff(delay, delay, 0)))
}

func (e Endpoint) CreateRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	method := http.MethodPost
	if len(e.Method) != 0 {
		method = e.Method
	}

	zerolog.Ctx(ctx).Debug().Str("_endpoint", e.URL).Msg("Creating request")

	req, err := http.NewRequestWithContext(ctx, method, e.URL, body)
	if err != nil {
		return nil, errorchain.
			NewWithMessage(reqauth.ErrInternal, "failed to create a request instance").
			CausedBy(err)
	}

	for name, value := range e.Headers {
		req.Header.Set(name, value)
	}

	return req, nil
}

// SendRequest sends the given body to the endpoint. The response is handed over to the given
// reader, which decides about the status codes it accepts.
func (e Endpoint) SendRequest(
	ctx context.Context,
	body io.Reader,
	reader ResponseReader,
	mutators ...func(req *http.Request) error,
) ([]byte, error) {
	req, err := e.CreateRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	for _, mutate := range mutators {
		if err = mutate(req); err != nil {
			return nil, err
		}
	}

	resp, err := e.CreateClient(req.URL.Hostname()).Do(req)
	if err != nil {
		var clientErr *url.Error
		if errors.As(err, &clientErr) && clientErr.Timeout() {
			return nil, errorchain.New(reqauth.ErrCommunicationTimeout).CausedBy(err)
		}

		return nil, errorchain.New(reqauth.ErrCommunication).CausedBy(err)
	}

	defer resp.Body.Close()

	return reader(resp)
}

func (e Endpoint) transport() http.RoundTripper {
	if e.Transport != nil {
		return e.Transport
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() // nolint: forcetypeassert
	transport.Proxy = nil

	return transport
}

func (e Endpoint) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}

	return defaultTimeout
}

func isTransient(statusCode int, err error) bool {
	return err != nil || statusCode >= http.StatusInternalServerError
}
