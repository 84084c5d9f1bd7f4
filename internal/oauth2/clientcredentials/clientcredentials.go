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

package clientcredentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/endpoint"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/tokensource"
	"github.com/reqauth/reqauth/internal/x/errorchain"
	"github.com/reqauth/reqauth/internal/x/stringx"
)

type AuthMethod string

const (
	AuthMethodBasicAuth   AuthMethod = "basic_auth"
	AuthMethodRequestBody AuthMethod = "request_body"
)

type Config struct {
	TokenURL     string          `mapstructure:"token_url"     validate:"required,url"`
	ClientID     string          `mapstructure:"client_id"     validate:"required"`
	ClientSecret string          `mapstructure:"client_secret" validate:"required"`
	AuthMethod   AuthMethod      `mapstructure:"auth_method"   validate:"omitempty,oneof=basic_auth request_body"`
	Scopes       []string        `mapstructure:"scopes"`
	TTL          *time.Duration  `mapstructure:"cache_ttl"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	Retry        *endpoint.Retry `mapstructure:"retry"`

	// Transport is used to reach the token endpoint.
	Transport http.RoundTripper `mapstructure:"-"`
}

// Fetcher returns a fetcher requesting a new access token on every call.
func (c *Config) Fetcher() tokensource.Fetcher {
	return tokensource.FetcherFunc(c.fetchToken)
}

func (c *Config) CacheKey() string {
	digest := sha256.New()
	digest.Write(stringx.ToBytes(c.ClientID))
	digest.Write(stringx.ToBytes(c.ClientSecret))
	digest.Write(stringx.ToBytes(c.TokenURL))
	digest.Write(stringx.ToBytes(strings.Join(c.Scopes, "")))

	return hex.EncodeToString(digest.Sum(nil))
}

func (c *Config) fetchToken(ctx context.Context) (*tokensource.Token, error) {
	zerolog.Ctx(ctx).Debug().Msg("Requesting new access token")

	ept := endpoint.Endpoint{
		URL:     c.TokenURL,
		Method:  http.MethodPost,
		Timeout: c.Timeout,
		Retry:   c.Retry,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Transport: c.Transport,
	}

	data := url.Values{"grant_type": []string{"client_credentials"}}
	if len(c.Scopes) != 0 {
		data.Add("scope", strings.Join(c.Scopes, " "))
	}

	if c.AuthMethod == AuthMethodRequestBody {
		// Not recommended, but there are non-compliant servers out there, which do not
		// support the Basic Auth authentication method (RFC 6749, section 2.3.1).
		data.Add("client_id", c.ClientID)
		data.Add("client_secret", c.ClientSecret)
	}

	requested := time.Now()

	rawData, err := ept.SendRequest(ctx, strings.NewReader(data.Encode()), readResponse, c.authenticate)
	if err != nil {
		return nil, err
	}

	var resp TokenSuccessfulResponse
	if err = json.Unmarshal(rawData, &resp); err != nil {
		return nil, errorchain.
			NewWithMessage(reqauth.ErrInternal, "failed to unmarshal response").
			CausedBy(err)
	}

	if len(resp.AccessToken) == 0 {
		return nil, errorchain.NewWithMessage(reqauth.ErrCommunication,
			"response does not contain an access token")
	}

	return resp.token(requested), nil
}

func (c *Config) authenticate(req *http.Request) error {
	if c.AuthMethod != AuthMethodRequestBody {
		req.SetBasicAuth(url.QueryEscape(c.ClientID), url.QueryEscape(c.ClientSecret))
	}

	return nil
}

func readResponse(resp *http.Response) ([]byte, error) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
	default:
		return nil, errorchain.NewWithMessagef(reqauth.ErrCommunication,
			"unexpected response code: %v", resp.StatusCode)
	}

	rawData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrCommunication,
			"failed to read response").CausedBy(err)
	}

	if resp.StatusCode == http.StatusOK {
		return rawData, nil
	}

	var ter TokenErrorResponse
	if err = json.Unmarshal(rawData, &ter); err != nil || len(ter.ErrorType) == 0 {
		return nil, errorchain.NewWithMessagef(reqauth.ErrAuthentication,
			"failed to fetch token: %s", stringx.ToString(rawData))
	}

	return nil, errorchain.New(reqauth.ErrAuthentication).CausedBy(&ter)
}
