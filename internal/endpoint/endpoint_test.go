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
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/httpretry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/reqauth/reqauth/internal/reqauth"
)

func TestEndpointCreateClient(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc       string
		endpoint Endpoint
		assert   func(t *testing.T, client *http.Client)
	}{
		{
			uc:       "without retry configuration",
			endpoint: Endpoint{URL: "http://foo.bar"},
			assert: func(t *testing.T, client *http.Client) {
				t.Helper()

				rrt, ok := client.Transport.(*httpretry.RetryRoundtripper)
				require.True(t, ok)
				assert.Equal(t, 1, rrt.MaxRetryCount)
				assert.NotNil(t, rrt.ShouldRetry)
				assert.NotNil(t, rrt.CalculateBackoff)
				assert.Equal(t, defaultTimeout, client.Timeout)

				_, ok = rrt.Next.(*otelhttp.Transport)
				require.True(t, ok)
			},
		},
		{
			uc: "with retry disabled",
			endpoint: Endpoint{
				URL:     "http://foo.bar",
				Timeout: 2 * time.Second,
				Retry:   &Retry{Disabled: true},
			},
			assert: func(t *testing.T, client *http.Client) {
				t.Helper()

				_, ok := client.Transport.(*otelhttp.Transport)
				require.True(t, ok)
				assert.Equal(t, 2*time.Second, client.Timeout)
			},
		},
		{
			uc:       "with custom retry delay",
			endpoint: Endpoint{URL: "http://foo.bar", Retry: &Retry{Delay: time.Second}},
			assert: func(t *testing.T, client *http.Client) {
				t.Helper()

				rrt, ok := client.Transport.(*httpretry.RetryRoundtripper)
				require.True(t, ok)
				assert.LessOrEqual(t, rrt.CalculateBackoff(1), time.Second)
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// WHEN
			client := tc.endpoint.CreateClient("foobar")

			// THEN
			tc.assert(t, client)
		})
	}
}

func TestEndpointCreateRequest(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc       string
		endpoint Endpoint
		assert   func(t *testing.T, req *http.Request, err error)
	}{
		{
			uc:       "with invalid url",
			endpoint: Endpoint{URL: "://foo"},
			assert: func(t *testing.T, _ *http.Request, err error) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, reqauth.ErrInternal)
			},
		},
		{
			uc:       "with defaults",
			endpoint: Endpoint{URL: "http://foo.bar/token"},
			assert: func(t *testing.T, req *http.Request, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Equal(t, "http://foo.bar/token", req.URL.String())
				assert.Empty(t, req.Header)
			},
		},
		{
			uc: "with method and headers",
			endpoint: Endpoint{
				URL:     "http://foo.bar/token",
				Method:  http.MethodPut,
				Headers: map[string]string{"Accept": "application/json", "X-Foo": "bar"},
			},
			assert: func(t *testing.T, req *http.Request, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, http.MethodPut, req.Method)
				assert.Equal(t, "application/json", req.Header.Get("Accept"))
				assert.Equal(t, "bar", req.Header.Get("X-Foo"))
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// WHEN
			req, err := tc.endpoint.CreateRequest(context.Background(), nil)

			// THEN
			tc.assert(t, req, err)
		})
	}
}

func TestEndpointSendRequest(t *testing.T) {
	t.Parallel()

	readAll := func(resp *http.Response) ([]byte, error) {
		if resp.StatusCode != http.StatusOK {
			return nil, reqauth.ErrAuthentication
		}

		return io.ReadAll(resp.Body)
	}

	for _, tc := range []struct {
		uc       string
		statuses []int
		retry    *Retry
		calls    int
		assert   func(t *testing.T, data []byte, err error)
	}{
		{
			uc:       "successful on first attempt",
			statuses: []int{http.StatusOK},
			calls:    1,
			assert: func(t *testing.T, data []byte, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "body=foo", string(data))
			},
		},
		{
			uc:       "server error is retried once",
			statuses: []int{http.StatusBadGateway, http.StatusOK},
			retry:    &Retry{Delay: time.Millisecond},
			calls:    2,
			assert: func(t *testing.T, data []byte, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "body=foo", string(data))
			},
		},
		{
			uc:       "server error is retried only once",
			statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			retry:    &Retry{Delay: time.Millisecond},
			calls:    2,
			assert: func(t *testing.T, _ []byte, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrAuthentication)
			},
		},
		{
			uc:       "rejection is not retried",
			statuses: []int{http.StatusForbidden, http.StatusOK},
			retry:    &Retry{Delay: time.Millisecond},
			calls:    1,
			assert: func(t *testing.T, _ []byte, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrAuthentication)
			},
		},
		{
			uc:       "server error without retry",
			statuses: []int{http.StatusInternalServerError, http.StatusOK},
			retry:    &Retry{Disabled: true},
			calls:    1,
			assert: func(t *testing.T, _ []byte, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrAuthentication)
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			var calls atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				idx := int(calls.Add(1)) - 1

				body, _ := io.ReadAll(r.Body)

				w.WriteHeader(tc.statuses[idx])
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			ep := Endpoint{URL: srv.URL, Retry: tc.retry}

			// WHEN
			data, err := ep.SendRequest(context.Background(), strings.NewReader("body=foo"), readAll)

			// THEN
			tc.assert(t, data, err)
			assert.Equal(t, tc.calls, int(calls.Load()))
		})
	}
}

func TestEndpointSendRequestAppliesMutators(t *testing.T) {
	t.Parallel()

	// GIVEN
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "foo" || pass != "bar" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ep := Endpoint{URL: srv.URL}

	// WHEN
	_, err := ep.SendRequest(context.Background(), nil,
		func(resp *http.Response) ([]byte, error) {
			if resp.StatusCode != http.StatusOK {
				return nil, reqauth.ErrAuthentication
			}

			return nil, nil
		},
		func(req *http.Request) error {
			req.SetBasicAuth("foo", "bar")

			return nil
		})

	// THEN
	require.NoError(t, err)
}

func TestEndpointSendRequestCommunicationErrors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc       string
		endpoint func(t *testing.T) Endpoint
		expErr   error
	}{
		{
			uc: "unreachable server",
			endpoint: func(t *testing.T) Endpoint {
				t.Helper()

				srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
				srv.Close()

				return Endpoint{URL: srv.URL, Retry: &Retry{Delay: time.Millisecond}}
			},
			expErr: reqauth.ErrCommunication,
		},
		{
			uc: "timed out request",
			endpoint: func(t *testing.T) Endpoint {
				t.Helper()

				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					time.Sleep(200 * time.Millisecond)
					w.WriteHeader(http.StatusOK)
				}))
				t.Cleanup(srv.Close)

				return Endpoint{URL: srv.URL, Timeout: 20 * time.Millisecond, Retry: &Retry{Disabled: true}}
			},
			expErr: reqauth.ErrCommunicationTimeout,
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			ep := tc.endpoint(t)

			// WHEN
			_, err := ep.SendRequest(context.Background(), nil, func(*http.Response) ([]byte, error) {
				return nil, nil
			})

			// THEN
			require.ErrorIs(t, err, tc.expErr)
		})
	}
}

func TestEndpointSendRequestUsesConfiguredTransport(t *testing.T) {
	t.Parallel()

	// GIVEN
	var proxiedHost string

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		proxiedHost = req.Host

		_, _ = w.Write([]byte("token"))
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	ep := Endpoint{
		URL:       "http://issuer.invalid/token",
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		Retry:     &Retry{Disabled: true},
	}

	// WHEN
	data, err := ep.SendRequest(context.Background(), nil, func(resp *http.Response) ([]byte, error) {
		return io.ReadAll(resp.Body)
	})

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "token", string(data))
	assert.Equal(t, "issuer.invalid", proxiedHost)
}

func TestEndpointDefaultTransportUsesNoProxy(t *testing.T) {
	t.Parallel()

	// WHEN
	transport, ok := Endpoint{URL: "http://issuer.invalid/token"}.transport().(*http.Transport)

	// THEN
	require.True(t, ok)
	assert.Nil(t, transport.Proxy)
}
