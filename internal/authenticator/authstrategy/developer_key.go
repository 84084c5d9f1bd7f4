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
)

const (
	defaultDeveloperKeyHeader = "X-GData-Key"
	defaultDeveloperKeyPrefix = "key="
)

// DeveloperKeyHeader configures the header the developer key is sent in.
type DeveloperKeyHeader struct {
	Name   string  `koanf:"name"   mapstructure:"name"   validate:"omitempty,header_name"`
	Prefix *string `koanf:"prefix" mapstructure:"prefix"`
}

// DeveloperKey decorates a scheme by adding the developer key of the authenticator to every
// request. Requests stay untouched if no developer key is set.
type DeveloperKey struct {
	next   authenticator.Scheme
	name   string
	prefix string
}

// WithDeveloperKey decorates the given scheme. If next applies cached tokens, so does the result.
func WithDeveloperKey(next authenticator.Scheme, header *DeveloperKeyHeader) authenticator.Scheme {
	dk := &DeveloperKey{next: next, name: defaultDeveloperKeyHeader, prefix: defaultDeveloperKeyPrefix}

	if header != nil && len(header.Name) != 0 {
		dk.name = header.Name
	}

	if header != nil && header.Prefix != nil {
		dk.prefix = *header.Prefix
	}

	if invalidator, ok := next.(authenticator.TokenInvalidator); ok {
		return &tokenDeveloperKey{DeveloperKey: dk, invalidator: invalidator}
	}

	return dk
}

func (d *DeveloperKey) ApplyToURI(ctx context.Context, id authenticator.Identity, target *url.URL) (*url.URL, error) {
	return d.next.ApplyToURI(ctx, id, target)
}

func (d *DeveloperKey) ApplyToRequest(ctx context.Context, id authenticator.Identity, req *http.Request) error {
	if err := d.next.ApplyToRequest(ctx, id, req); err != nil {
		return err
	}

	if key := id.DeveloperKey(); len(key) != 0 {
		req.Header.Set(d.name, d.prefix+key)
	}

	return nil
}

type tokenDeveloperKey struct {
	*DeveloperKey

	invalidator authenticator.TokenInvalidator
}

func (t *tokenDeveloperKey) InvalidateToken(ctx context.Context, rejected *http.Request) {
	t.invalidator.InvalidateToken(ctx, rejected)
}
