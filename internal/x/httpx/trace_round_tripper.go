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

package httpx

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/x/stringx"
)

const redacted = "[REDACTED]"

type traceRoundTripper struct {
	t         http.RoundTripper
	sensitive []string
}

// NewTraceRoundTripper dumps outbound requests and inbound responses if the logger from the
// request context is set to the trace level. Values of the headers named by sensitive as well
// as Authorization and Cookie headers are never written to the log.
func NewTraceRoundTripper(rt http.RoundTripper, sensitive ...string) http.RoundTripper {
	return &traceRoundTripper{
		t:         rt,
		sensitive: append([]string{"Authorization", "Proxy-Authorization", "Cookie"}, sensitive...),
	}
}

func (t *traceRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := zerolog.Ctx(req.Context())
	if logger.GetLevel() != zerolog.TraceLevel {
		return t.t.RoundTrip(req)
	}

	// the dump happens on a shallow copy with masked headers, so the request itself stays intact
	masked := req.Clone(req.Context())
	masked.Body = req.Body
	masked.GetBody = req.GetBody

	for _, name := range t.sensitive {
		if len(masked.Header.Values(name)) != 0 {
			masked.Header.Set(name, redacted)
		}
	}

	contentType := req.Header.Get("Content-Type")
	// don't dump the body if content type is some sort of stream
	dump, err := httputil.DumpRequestOut(masked,
		req.ContentLength != 0 &&
			!strings.Contains(contentType, "stream") &&
			!strings.Contains(contentType, "application/x-ndjson"))
	if err != nil {
		logger.Trace().Err(err).Msg("Failed dumping out request")
	} else {
		logger.Trace().Msg("Outbound Request: \n" + stringx.ToString(dump))
	}

	// DumpRequestOut replaces the body of the given request with an equivalent one
	req.Body = masked.Body

	resp, err := t.t.RoundTrip(req)
	if err != nil {
		logger.Trace().Err(err).Msg("Failed sending request")

		return nil, err
	}

	contentType = resp.Header.Get("Content-Type")
	dump, err = httputil.DumpResponse(resp,
		resp.ContentLength != 0 &&
			!strings.Contains(contentType, "stream") &&
			!strings.Contains(contentType, "application/x-ndjson"))
	if err != nil {
		logger.Trace().Err(err).Msg("Failed dumping response")
	} else {
		logger.Trace().Msg("Inbound Response: \n" + stringx.ToString(dump))
	}

	return resp, err
}
