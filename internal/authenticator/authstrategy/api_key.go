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

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

type APIKey struct {
	In    string `mapstructure:"in"    validate:"required,oneof=cookie header query"`
	Name  string `mapstructure:"name"  validate:"required"`
	Value string `mapstructure:"value" validate:"required"`
}

// ApplyToURI places the key into the query if configured so. An existing parameter with the
// same name is replaced. The rest of the query is kept as it is.
func (c *APIKey) ApplyToURI(_ context.Context, _ authenticator.Identity, target *url.URL) (*url.URL, error) {
	if c.In != "query" {
		return target, nil
	}

	return withQueryParameter(target, c.Name, url.QueryEscape(c.Value)), nil
}

func (c *APIKey) ApplyToRequest(_ context.Context, _ authenticator.Identity, req *http.Request) error {
	switch c.In {
	case "cookie":
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	case "header":
		req.Header.Set(c.Name, c.Value)
	case "query":
	default:
		return errorchain.NewWithMessagef(reqauth.ErrConfiguration,
			"unsupported in value (%s) in api key scheme", c.In)
	}

	return nil
}
