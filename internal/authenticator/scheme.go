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

package authenticator

import (
	"context"
	"net/http"
	"net/url"
)

// Identity gives schemes access to the identity an authenticator has been configured with.
type Identity interface {
	Application() string
	DeveloperKey() string
}

// Scheme is a credential scheme an Authenticator applies to each request it creates.
//
// ApplyToURI is called before the request object exists. It must not modify the given URI,
// must not perform any I/O and must return the same result when applied to its own output.
// Schemes, which don't have to route via a rewritten URI, return the target unchanged.
//
// ApplyToRequest mutates the given request in place (headers, cookies). It must neither
// replace the request nor change its method or target.
type Scheme interface {
	ApplyToURI(ctx context.Context, id Identity, target *url.URL) (*url.URL, error)
	ApplyToRequest(ctx context.Context, id Identity, req *http.Request) error
}

// TokenInvalidator is implemented by schemes, which apply cached tokens. It is called with the
// request the token has been rejected for, so that the next request triggers a token refresh.
type TokenInvalidator interface {
	InvalidateToken(ctx context.Context, rejected *http.Request)
}

// Anonymous applies no credentials at all.
type Anonymous struct{}

func (Anonymous) ApplyToURI(_ context.Context, _ Identity, target *url.URL) (*url.URL, error) {
	return target, nil
}

func (Anonymous) ApplyToRequest(_ context.Context, _ Identity, _ *http.Request) error { return nil }
