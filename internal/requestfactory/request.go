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

package requestfactory

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// Request is the request in progress. It is created by a RequestFactory, shaped by an
// authenticator and then handed over to the caller, who performs the actual I/O.
type Request struct {
	*http.Request

	AllowAutoRedirect bool

	transport http.RoundTripper
	timeout   time.Duration
}

// NewRequest wraps the given request. A nil transport results in http.DefaultTransport being used.
func NewRequest(req *http.Request, transport http.RoundTripper, timeout time.Duration) *Request {
	return &Request{
		Request:           req,
		AllowAutoRedirect: true,
		transport:         transport,
		timeout:           timeout,
	}
}

// SetBody replaces the body of the request. Authentication applied before stays untouched.
func (r *Request) SetBody(body []byte) {
	if len(body) == 0 {
		r.Body = http.NoBody
		r.ContentLength = 0
		r.GetBody = nil

		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
}

// Client returns a client, which honors the redirect policy and the transport settings of the request.
func (r *Request) Client() *http.Client {
	client := &http.Client{
		Transport: r.transport,
		Timeout:   r.timeout,
	}

	if !r.AllowAutoRedirect {
		client.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}

func (r *Request) Do() (*http.Response, error) {
	return r.Client().Do(r.Request)
}
