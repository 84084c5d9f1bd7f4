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
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/endpoint"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/tokensource"
	"github.com/reqauth/reqauth/internal/x/errorchain"
	"github.com/reqauth/reqauth/internal/x/stringx"
)

const maxResponseSize = 64 * 1024

// Fetcher returns a fetcher exchanging the configured credentials for a ClientLogin token.
// The application name is sent as the source of the request.
func (c *Config) Fetcher(application string) tokensource.Fetcher {
	return tokensource.FetcherFunc(func(ctx context.Context) (*tokensource.Token, error) {
		return c.fetchToken(ctx, application)
	})
}

func (c *Config) fetchToken(ctx context.Context, application string) (*tokensource.Token, error) {
	logger := zerolog.Ctx(ctx)

	ept := endpoint.Endpoint{
		URL:     c.TokenURL(),
		Method:  http.MethodPost,
		Timeout: c.Timeout,
		Retry:   c.Retry,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Transport: c.Transport,
	}

	data := url.Values{
		"accountType": []string{c.accountType()},
		"Email":       []string{c.Email},
		"Passwd":      []string{c.Password},
		"service":     []string{c.Service},
		"source":      []string{application},
	}

	logger.Debug().Str("_service", c.Service).Msg("Requesting ClientLogin token")

	rawData, err := ept.SendRequest(ctx, strings.NewReader(data.Encode()), readResponse)
	if err != nil {
		return nil, err
	}

	fields := parseResponse(rawData)

	auth := fields["Auth"]
	if len(auth) == 0 {
		return nil, errorchain.NewWithMessage(reqauth.ErrCommunication,
			"response does not contain an Auth token")
	}

	return &tokensource.Token{Value: auth}, nil
}

func readResponse(resp *http.Response) ([]byte, error) {
	rawData, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrCommunication,
			"failed to read response").CausedBy(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return rawData, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errorchain.New(reqauth.ErrAuthentication).CausedBy(newLoginError(parseResponse(rawData)))
	default:
		return nil, errorchain.NewWithMessagef(reqauth.ErrCommunication,
			"unexpected response code: %v", resp.StatusCode)
	}
}

// parseResponse parses the newline separated key=value pairs ClientLogin responds with.
func parseResponse(data []byte) map[string]string {
	fields := make(map[string]string)

	for _, line := range strings.Split(stringx.ToString(data), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || len(key) == 0 {
			continue
		}

		fields[key] = value
	}

	return fields
}
