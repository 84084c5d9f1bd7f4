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
	"context"
	"io"
	"net/url"

	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

const maxPrintedBodySize = 1024 * 1024

func createRequest(
	ctx context.Context,
	auth *authenticator.Authenticator,
	method string,
	target *url.URL,
	out *renderer,
) error {
	req, err := auth.CreateRequest(ctx, method, target)
	if err != nil {
		return err
	}

	return out.render(shapedRequest{
		Method:            req.Method,
		URL:               req.URL.String(),
		AllowAutoRedirect: req.AllowAutoRedirect,
		Headers:           req.Header,
	})
}

func sendRequest(
	ctx context.Context,
	auth *authenticator.Authenticator,
	method string,
	target *url.URL,
	body []byte,
	out *renderer,
) error {
	resp, err := auth.Send(ctx, method, target, body)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPrintedBodySize))
	if err != nil {
		return errorchain.NewWithMessage(reqauth.ErrCommunication, "failed to read response").CausedBy(err)
	}

	return out.render(receivedResponse{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    string(data),
	})
}
