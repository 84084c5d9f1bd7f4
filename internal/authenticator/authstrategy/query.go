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
	"net/url"
	"strings"
)

// withQueryParameter returns a copy of target with the given parameter set. An existing
// parameter with the same name is dropped. All other parameters are kept verbatim and in
// their order. value must already be encoded.
func withQueryParameter(target *url.URL, name, value string) *url.URL {
	var params []string

	if len(target.RawQuery) != 0 {
		for _, param := range strings.Split(target.RawQuery, "&") {
			if len(param) == 0 {
				continue
			}

			raw, _, _ := strings.Cut(param, "=")
			if decoded, err := url.QueryUnescape(raw); raw == name || (err == nil && decoded == name) {
				continue
			}

			params = append(params, param)
		}
	}

	params = append(params, url.QueryEscape(name)+"="+value)

	result := *target
	result.RawQuery = strings.Join(params, "&")
	result.ForceQuery = false

	return &result
}
