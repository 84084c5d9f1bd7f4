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

package clientlogin

import "strings"

// LoginError is the reason reported by the ClientLogin service for a rejected login.
type LoginError struct {
	Reason     string
	Info       string
	CaptchaURL string
}

func newLoginError(fields map[string]string) *LoginError {
	reason := fields["Error"]
	if len(reason) == 0 {
		reason = "Unknown"
	}

	return &LoginError{
		Reason:     reason,
		Info:       fields["Info"],
		CaptchaURL: fields["CaptchaUrl"],
	}
}

func (e *LoginError) Error() string {
	builder := strings.Builder{}
	builder.WriteString("login rejected: ")
	builder.WriteString(e.Reason)

	if len(e.Info) != 0 {
		builder.WriteString(", info: ")
		builder.WriteString(e.Info)
	}

	if len(e.CaptchaURL) != 0 {
		builder.WriteString(", captcha_url: ")
		builder.WriteString(e.CaptchaURL)
	}

	return builder.String()
}
