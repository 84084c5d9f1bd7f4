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

package oauth1

import (
	"net/http"

	"github.com/gomodule/oauth1/oauth"

	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

// Signer adds HMAC-SHA1 signed Authorization headers (RFC 5849) on behalf of a consumer.
// It is safe for concurrent use.
type Signer struct {
	client oauth.Client
}

func NewSigner(consumer Consumer) *Signer {
	return &Signer{
		client: oauth.Client{
			Credentials:     oauth.Credentials{Token: consumer.Key(), Secret: consumer.Secret()},
			SignatureMethod: oauth.HMACSHA1,
		},
	}
}

// Sign sets the Authorization header of the given request. The query of the request uri is
// part of the signature. If token is nil, the request is signed with the consumer credentials
// only, as done in the two-legged flow.
func (s *Signer) Sign(req *http.Request, token *Token) error {
	if len(s.client.Credentials.Token) == 0 {
		return errorchain.NewWithMessage(reqauth.ErrConfiguration, "no oauth consumer key configured")
	}

	if req.URL == nil || !req.URL.IsAbs() {
		return errorchain.NewWithMessage(reqauth.ErrArgument, "oauth signing requires an absolute uri")
	}

	var credentials *oauth.Credentials
	if token != nil {
		credentials = &oauth.Credentials{Token: token.Value, Secret: token.Secret}
	}

	if req.Header == nil {
		req.Header = make(http.Header)
	}

	if err := s.client.SetAuthorizationHeader(req.Header, credentials, req.Method, req.URL, nil); err != nil {
		return errorchain.NewWithMessage(reqauth.ErrInternal, "failed signing request").CausedBy(err)
	}

	return nil
}
