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

package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type shapedRequest struct {
	Method            string      `json:"method"              yaml:"method"`
	URL               string      `json:"url"                 yaml:"url"`
	AllowAutoRedirect bool        `json:"allow_auto_redirect" yaml:"allow_auto_redirect"`
	Headers           http.Header `json:"headers,omitempty"   yaml:"headers,omitempty"`
}

type receivedResponse struct {
	Status  int         `json:"status"            yaml:"status"`
	Headers http.Header `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string      `json:"body,omitempty"    yaml:"body,omitempty"`
}

// renderer prints results as YAML documents (text format) or JSON objects.
type renderer struct {
	format string
	out    io.Writer
}

func newRenderer(format string, out io.Writer) (*renderer, error) {
	switch format {
	case formatText, formatJSON:
		return &renderer{format: format, out: out}, nil
	default:
		return nil, errorchain.NewWithMessagef(reqauth.ErrArgument, "unsupported output format '%s'", format)
	}
}

func (r *renderer) render(value any) error {
	if r.format == formatJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")

		return enc.Encode(value)
	}

	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2) // nolint: mnd

	if err := enc.Encode(value); err != nil {
		return err
	}

	return enc.Close()
}

func (r *renderer) renderError(out io.Writer, err error) {
	if r.format != formatJSON {
		_, _ = fmt.Fprintf(out, "Error: %v\n", err)

		return
	}

	var chain *errorchain.ErrorChain
	if !errors.As(err, &chain) {
		_ = json.NewEncoder(out).Encode(map[string]string{"message": err.Error()})

		return
	}

	_ = json.NewEncoder(out).Encode(map[string]any{"error": chain, "message": err.Error()})
}
