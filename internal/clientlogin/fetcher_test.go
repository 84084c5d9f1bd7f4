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

package clientlogin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqauth/reqauth/internal/endpoint"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/requestfactory"
	"github.com/reqauth/reqauth/internal/tokensource"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	// GIVEN
	conf := Config{Email: "foo@example.com", Password: "bar", Service: ServiceYouTube}

	// THEN
	assert.Equal(t, DefaultURL, conf.TokenURL())
	assert.Equal(t, AccountTypeHostedOrGoogle, conf.accountType())

	key := conf.CacheKey()
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "bar")

	other := conf
	other.Service = ServiceCalendar
	assert.NotEqual(t, key, other.CacheKey())
}

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc      string
		retry   *endpoint.Retry
		handler func(t *testing.T, calls int32) http.HandlerFunc
		calls   int32
		assert  func(t *testing.T, token *tokensource.Token, err error)
	}{
		{
			uc: "successful login",
			handler: func(t *testing.T, _ int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, http.MethodPost, r.Method)
					assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

					assert.NoError(t, r.ParseForm())
					assert.Equal(t, AccountTypeHostedOrGoogle, r.PostForm.Get("accountType"))
					assert.Equal(t, "foo@example.com", r.PostForm.Get("Email"))
					assert.Equal(t, "secret", r.PostForm.Get("Passwd"))
					assert.Equal(t, ServiceYouTube, r.PostForm.Get("service"))
					assert.Equal(t, "test-app", r.PostForm.Get("source"))

					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte("SID=sid-value\nLSID=lsid-value\nAuth=auth-token\n"))
				}
			},
			calls: 1,
			assert: func(t *testing.T, token *tokensource.Token, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "auth-token", token.Value)
				assert.True(t, token.Expiry.IsZero())
			},
		},
		{
			uc: "bad credentials are not retried",
			handler: func(t *testing.T, _ int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusForbidden)
					_, _ = w.Write([]byte("Error=BadAuthentication\n"))
				}
			},
			calls: 1,
			assert: func(t *testing.T, _ *tokensource.Token, err error) {
				t.Helper()

				require.Error(t, err)
				require.ErrorIs(t, err, reqauth.ErrAuthentication)

				var loginErr *LoginError
				require.ErrorAs(t, err, &loginErr)
				assert.Equal(t, "BadAuthentication", loginErr.Reason)
			},
		},
		{
			uc: "captcha required",
			handler: func(t *testing.T, _ int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte("Error=CaptchaRequired\nCaptchaToken=abc\nCaptchaUrl=Captcha?ctoken=abc\n"))
				}
			},
			calls: 1,
			assert: func(t *testing.T, _ *tokensource.Token, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrAuthentication)
				require.ErrorContains(t, err, "CaptchaRequired")
				require.ErrorContains(t, err, "captcha_url: Captcha?ctoken=abc")
			},
		},
		{
			uc: "response without auth token",
			handler: func(t *testing.T, _ int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte("SID=sid-value\n"))
				}
			},
			calls: 1,
			assert: func(t *testing.T, _ *tokensource.Token, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrCommunication)
				require.ErrorContains(t, err, "Auth token")
			},
		},
		{
			uc:    "transient server error is retried once",
			retry: &endpoint.Retry{Delay: time.Millisecond},
			handler: func(t *testing.T, calls int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					if calls == 1 {
						w.WriteHeader(http.StatusServiceUnavailable)

						return
					}

					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte("Auth=auth-token"))
				}
			},
			calls: 2,
			assert: func(t *testing.T, token *tokensource.Token, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, "auth-token", token.Value)
			},
		},
		{
			uc:    "persistent server error",
			retry: &endpoint.Retry{Delay: time.Millisecond},
			handler: func(t *testing.T, _ int32) http.HandlerFunc {
				t.Helper()

				return func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}
			},
			calls: 2,
			assert: func(t *testing.T, _ *tokensource.Token, err error) {
				t.Helper()

				require.ErrorIs(t, err, reqauth.ErrCommunication)
				require.ErrorContains(t, err, "unexpected response code: 500")
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			var calls atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tc.handler(t, calls.Add(1))(w, r)
			}))
			defer srv.Close()

			conf := Config{
				URL:      srv.URL,
				Email:    "foo@example.com",
				Password: "secret",
				Service:  ServiceYouTube,
				Retry:    tc.retry,
			}

			// WHEN
			token, err := conf.Fetcher("test-app").Fetch(context.Background())

			// THEN
			tc.assert(t, token, err)
			assert.Equal(t, tc.calls, calls.Load())
		})
	}
}

func TestFetcherFetchCommunicationError(t *testing.T) {
	t.Parallel()

	// GIVEN
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	conf := Config{
		URL:      srv.URL,
		Email:    "foo@example.com",
		Password: "secret",
		Service:  ServiceDocuments,
		Retry:    &endpoint.Retry{Delay: time.Millisecond},
	}

	// WHEN
	_, err := conf.Fetcher("test-app").Fetch(context.Background())

	// THEN
	require.ErrorIs(t, err, reqauth.ErrCommunication)
}

func TestFetcherFetchUsesConfiguredProxy(t *testing.T) {
	t.Parallel()

	// GIVEN
	var (
		proxiedHost string
		form        string
	)

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		proxiedHost = req.Host

		require.NoError(t, req.ParseForm())
		form = req.PostForm.Get("service")

		_, _ = w.Write([]byte("SID=x\nAuth=proxied-token\n"))
	}))
	defer proxy.Close()

	transport, err := requestfactory.NewTransport(requestfactory.ProxyConfig{URL: proxy.URL})
	require.NoError(t, err)

	conf := Config{
		URL:       "http://login.invalid/accounts/ClientLogin",
		Email:     "foo@example.com",
		Password:  "secret",
		Service:   ServiceYouTube,
		Transport: transport,
	}

	// WHEN
	token, err := conf.Fetcher("test-app").Fetch(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "proxied-token", token.Value)
	assert.Equal(t, "login.invalid", proxiedHost)
	assert.Equal(t, ServiceYouTube, form)
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	fields := parseResponse([]byte("SID=a\r\nLSID=b\n\ninvalid\nAuth=c=d\n"))

	assert.Equal(t, map[string]string{"SID": "a", "LSID": "b", "Auth": "c=d"}, fields)
}
