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
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/cache/memory"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/tokensource"
)

type tokenIssuer struct {
	issued atomic.Int32
	srv    *httptest.Server
}

func newClientLoginIssuer(t *testing.T) *tokenIssuer {
	t.Helper()

	issuer := &tokenIssuer{}
	issuer.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("Passwd") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Error=BadAuthentication"))

			return
		}

		_, _ = fmt.Fprintf(w, "SID=foo\nLSID=bar\nAuth=token-%d\n", issuer.issued.Add(1))
	}))
	t.Cleanup(issuer.srv.Close)

	return issuer
}

func newOAuth2Issuer(t *testing.T) *tokenIssuer {
	t.Helper()

	issuer := &tokenIssuer{}
	issuer.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "foo" || pass != "bar" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))

			return
		}

		rawResp, _ := json.Marshal(map[string]any{
			"access_token": fmt.Sprintf("token-%d", issuer.issued.Add(1)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(rawResp)
	}))
	t.Cleanup(issuer.srv.Close)

	return issuer
}

// newService returns a service, which accepts the given authorization header value only.
func newService(t *testing.T, header, accepted string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.Header.Get(header) != accepted {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestClientLoginApplyToRequest(t *testing.T) {
	t.Parallel()

	// GIVEN
	issuer := newClientLoginIssuer(t)

	scheme, err := NewScheme(Dependencies{Application: "test-app"}, TypeClientLogin, map[string]any{
		"url":      issuer.srv.URL,
		"email":    "foo@example.com",
		"password": "secret",
		"service":  "cl",
	})
	require.NoError(t, err)

	req1 := &http.Request{Header: http.Header{}}
	req2 := &http.Request{Header: http.Header{}}

	// WHEN
	err1 := scheme.ApplyToRequest(context.Background(), identity{}, req1)
	err2 := scheme.ApplyToRequest(context.Background(), identity{}, req2)

	// THEN
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, "GoogleLogin auth=token-1", req1.Header.Get("Authorization"))
	assert.Equal(t, "GoogleLogin auth=token-1", req2.Header.Get("Authorization"))
	assert.Equal(t, int32(1), issuer.issued.Load())
}

func TestClientLoginApplyToRequestWithRejectedCredentials(t *testing.T) {
	t.Parallel()

	// GIVEN
	issuer := newClientLoginIssuer(t)

	scheme, err := NewScheme(Dependencies{Application: "test-app"}, TypeClientLogin, map[string]any{
		"url":      issuer.srv.URL,
		"email":    "foo@example.com",
		"password": "wrong",
		"service":  "cl",
	})
	require.NoError(t, err)

	req := &http.Request{Header: http.Header{}}

	// WHEN
	err = scheme.ApplyToRequest(context.Background(), identity{}, req)

	// THEN
	require.ErrorIs(t, err, reqauth.ErrAuthentication)
	require.ErrorContains(t, err, "BadAuthentication")
	assert.Empty(t, req.Header)
}

func TestTokenSchemesReachIssuersViaConfiguredTransport(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc       string
		typ      string
		issuer   func(t *testing.T) *tokenIssuer
		conf     map[string]any
		expected string
	}{
		{
			uc:     "client_login",
			typ:    TypeClientLogin,
			issuer: newClientLoginIssuer,
			conf: map[string]any{
				"url":           "http://login.invalid/accounts/ClientLogin",
				"email":         "foo@example.com",
				"password":      "secret",
				"service":       "youtube",
				"fetch_timeout": "5s",
			},
			expected: "GoogleLogin auth=token-1",
		},
		{
			uc:     "oauth2_client_credentials",
			typ:    TypeOAuth2ClientCredentials,
			issuer: newOAuth2Issuer,
			conf: map[string]any{
				"token_url":     "http://issuer.invalid/token",
				"client_id":     "foo",
				"client_secret": "bar",
				"fetch_timeout": "5s",
			},
			expected: "Bearer token-1",
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			issuer := tc.issuer(t)

			// the issuer acts as the proxy the issuer host can only be reached through
			proxyURL, err := url.Parse(issuer.srv.URL)
			require.NoError(t, err)

			deps := Dependencies{
				Application: "test-app",
				Transport:   &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			}

			scheme, err := NewScheme(deps, tc.typ, tc.conf)
			require.NoError(t, err)

			req := &http.Request{Header: http.Header{}}

			// WHEN
			err = scheme.ApplyToRequest(context.Background(), identity{}, req)

			// THEN
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req.Header.Get("Authorization"))
			assert.Equal(t, int32(1), issuer.issued.Load())
		})
	}
}

func TestTokenSchemesRefreshRejectedToken(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc        string
		typ       string
		newIssuer func(t *testing.T) *tokenIssuer
		config    func(issuer *tokenIssuer) map[string]any
		accepted  string
	}{
		{
			uc:        "client login",
			typ:       TypeClientLogin,
			newIssuer: newClientLoginIssuer,
			config: func(issuer *tokenIssuer) map[string]any {
				return map[string]any{
					"url":      issuer.srv.URL,
					"email":    "foo@example.com",
					"password": "secret",
					"service":  "youtube",
				}
			},
			accepted: "GoogleLogin auth=token-2",
		},
		{
			uc:        "oauth2 client credentials",
			typ:       TypeOAuth2ClientCredentials,
			newIssuer: newOAuth2Issuer,
			config: func(issuer *tokenIssuer) map[string]any {
				return map[string]any{
					"token_url":     issuer.srv.URL,
					"client_id":     "foo",
					"client_secret": "bar",
				}
			},
			accepted: "Bearer token-2",
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			issuer := tc.newIssuer(t)
			service, calls := newService(t, "Authorization", tc.accepted)
			reg := prometheus.NewRegistry()
			metrics := tokensource.NewMetrics(tokensource.WithRegisterer(reg))

			cch, err := memory.NewCache(nil)
			require.NoError(t, err)

			deps := Dependencies{Application: "test-app", Cache: cch, Metrics: metrics}

			scheme, err := NewScheme(deps, tc.typ, tc.config(issuer))
			require.NoError(t, err)

			auth, err := authenticator.New("test-app", scheme)
			require.NoError(t, err)

			target, _ := url.Parse(service.URL + "/feed")

			// WHEN
			resp, err := auth.Send(context.Background(), http.MethodGet, target, nil)

			// THEN
			require.NoError(t, err)

			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, int32(2), issuer.issued.Load())
			assert.Equal(t, int32(2), calls.Load())

			expected := fmt.Sprintf(`
# HELP reqauth_token_fetches_total Count of token fetches from the issuer by token source and result.
# TYPE reqauth_token_fetches_total counter
reqauth_token_fetches_total{result="success",source="%s"} 2
`, tc.typ)
			require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
				"reqauth_token_fetches_total"))
		})
	}
}

func TestOAuth2ClientCredentialsApplyToRequest(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		uc       string
		header   map[string]any
		expected func(req *http.Request) (string, string)
	}{
		{
			uc: "default header",
			expected: func(req *http.Request) (string, string) {
				return "Bearer token-1", req.Header.Get("Authorization")
			},
		},
		{
			uc:     "custom header and scheme",
			header: map[string]any{"name": "X-Token", "scheme": "Foo"},
			expected: func(req *http.Request) (string, string) {
				return "Foo token-1", req.Header.Get("X-Token")
			},
		},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			t.Parallel()

			// GIVEN
			issuer := newOAuth2Issuer(t)

			conf := map[string]any{
				"token_url":     issuer.srv.URL,
				"client_id":     "foo",
				"client_secret": "bar",
			}
			if tc.header != nil {
				conf["header"] = tc.header
			}

			scheme, err := NewScheme(Dependencies{}, TypeOAuth2ClientCredentials, conf)
			require.NoError(t, err)

			req := &http.Request{Header: http.Header{}}

			// WHEN
			err = scheme.ApplyToRequest(context.Background(), identity{}, req)

			// THEN
			require.NoError(t, err)

			expected, actual := tc.expected(req)
			assert.Equal(t, expected, actual)
		})
	}
}

func TestOAuth2ClientCredentialsInvalidateKeepsRefreshedToken(t *testing.T) {
	t.Parallel()

	// GIVEN
	issuer := newOAuth2Issuer(t)

	scheme, err := NewScheme(Dependencies{}, TypeOAuth2ClientCredentials, map[string]any{
		"token_url":     issuer.srv.URL,
		"client_id":     "foo",
		"client_secret": "bar",
	})
	require.NoError(t, err)

	invalidator, ok := scheme.(authenticator.TokenInvalidator)
	require.True(t, ok)

	stale := &http.Request{Header: http.Header{"Authorization": []string{"Bearer token-0"}}}
	req := &http.Request{Header: http.Header{}}

	require.NoError(t, scheme.ApplyToRequest(context.Background(), identity{}, req))

	// WHEN
	invalidator.InvalidateToken(context.Background(), stale)
	require.NoError(t, scheme.ApplyToRequest(context.Background(), identity{}, req))

	// THEN
	assert.Equal(t, "Bearer token-1", req.Header.Get("Authorization"))
	assert.Equal(t, int32(1), issuer.issued.Load())
}
