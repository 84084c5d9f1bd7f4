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
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/reqauth/reqauth/internal/endpoint"
	"github.com/reqauth/reqauth/internal/x/stringx"
)

// Names of the services a ClientLogin token can be requested for.
const (
	ServiceYouTube   = "youtube"
	ServiceCalendar  = "cl"
	ServiceDocuments = "writely"
)

const (
	DefaultURL = "https://www.google.com/accounts/ClientLogin"

	AccountTypeGoogle         = "GOOGLE"
	AccountTypeHosted         = "HOSTED"
	AccountTypeHostedOrGoogle = "HOSTED_OR_GOOGLE"
)

type Config struct {
	URL         string          `mapstructure:"url"          validate:"omitempty,url"`
	Email       string          `mapstructure:"email"        validate:"required"`
	Password    string          `mapstructure:"password"     validate:"required"`
	Service     string          `mapstructure:"service"      validate:"required"`
	AccountType string          `mapstructure:"account_type" validate:"omitempty,oneof=GOOGLE HOSTED HOSTED_OR_GOOGLE"` //nolint:lll
	Timeout     time.Duration   `mapstructure:"timeout"`
	Retry       *endpoint.Retry `mapstructure:"retry"`

	// Transport is used to reach the ClientLogin endpoint.
	Transport http.RoundTripper `mapstructure:"-"`
}

func (c *Config) TokenURL() string {
	if len(c.URL) != 0 {
		return c.URL
	}

	return DefaultURL
}

// CacheKey identifies the tokens issued for this configuration. It never contains the
// credentials in clear text.
func (c *Config) CacheKey() string {
	digest := sha256.New()
	digest.Write(stringx.ToBytes(c.TokenURL()))
	digest.Write(stringx.ToBytes(c.accountType()))
	digest.Write(stringx.ToBytes(c.Email))
	digest.Write(stringx.ToBytes(c.Password))
	digest.Write(stringx.ToBytes(c.Service))

	return hex.EncodeToString(digest.Sum(nil))
}

func (c *Config) accountType() string {
	if len(c.AccountType) != 0 {
		return c.AccountType
	}

	return AccountTypeHostedOrGoogle
}
