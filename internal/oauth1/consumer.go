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

// Consumer identifies the application to the service provider. It is immutable once created.
type Consumer struct {
	key    string
	secret string
}

func NewConsumer(key, secret string) Consumer {
	return Consumer{key: key, secret: secret}
}

func (c Consumer) Key() string { return c.key }

func (c Consumer) Secret() string { return c.secret }

// Token is an access token obtained in the three-legged flow.
type Token struct {
	Value  string `mapstructure:"value"  validate:"required"`
	Secret string `mapstructure:"secret" validate:"required"`
}
