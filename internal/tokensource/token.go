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

package tokensource

import (
	"context"
	"time"
)

// Token is an opaque credential obtained from a token endpoint.
type Token struct {
	Value string `json:"value"`
	// Type is the token type as reported by the issuer, e.g. "Bearer". Might be empty.
	Type string `json:"type,omitempty"`
	// Expiry is the point in time the token expires. Zero if unknown.
	Expiry time.Time `json:"expiry,omitempty"`
}

func (t *Token) expired(now time.Time, leeway time.Duration) bool {
	return !t.Expiry.IsZero() && !now.Add(leeway).Before(t.Expiry)
}

// Fetcher obtains a new token from the issuer. Implementations must not cache.
type Fetcher interface {
	Fetch(ctx context.Context) (*Token, error)
}

type FetcherFunc func(ctx context.Context) (*Token, error)

func (f FetcherFunc) Fetch(ctx context.Context) (*Token, error) { return f(ctx) }
