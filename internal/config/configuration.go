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

package config

import (
	"github.com/reqauth/reqauth/internal/config/parser"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/requestfactory"
	"github.com/reqauth/reqauth/internal/validation"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

type (
	ConfigurationPath string
	EnvVarPrefix      string
)

// CacheConfig selects the backend tokens of token based schemes are cached in.
type CacheConfig struct {
	Type   string         `koanf:"type"   validate:"required"`
	Config map[string]any `koanf:"config"`
}

// AuthConfig selects the credential scheme and holds its type specific settings.
type AuthConfig struct {
	Type   string         `koanf:"type"   validate:"required"`
	Config map[string]any `koanf:"config"`
	// DeveloperKeyHeader enables sending the developer key along with the credentials of the scheme.
	// The developer_key scheme configures its header in Config instead.
	DeveloperKeyHeader *DeveloperKeyHeader `koanf:"developer_key_header" validate:"excluded_if=Type developer_key"`
}

type DeveloperKeyHeader struct {
	Name   string  `koanf:"name"   validate:"omitempty,header_name"`
	Prefix *string `koanf:"prefix"`
}

type Configuration struct {
	Log            LoggingConfig         `koanf:"log"`
	Application    string                `koanf:"application"     validate:"required"`
	DeveloperKey   string                `koanf:"developer_key"`
	RequestFactory requestfactory.Config `koanf:"request_factory"`
	TokenCache     CacheConfig           `koanf:"token_cache"`
	Auth           AuthConfig            `koanf:"auth"`
}

func NewConfiguration(envPrefix EnvVarPrefix, configFile ConfigurationPath) (*Configuration, error) {
	// copy defaults
	result := defaultConfig()

	err := parser.Load(&result,
		parser.WithDecodeHookFunc(logLevelDecodeHookFunc),
		parser.WithDecodeHookFunc(logFormatDecodeHookFunc),
		parser.WithDecodeHookFunc(StringToByteSizeHookFunc()),
		parser.WithConfigFile(string(configFile)),
		parser.WithEnvPrefix(string(envPrefix)),
	)
	if err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrConfiguration,
			"failed to load configuration").CausedBy(err)
	}

	if err = validation.ValidateStruct(&result); err != nil {
		return nil, errorchain.NewWithMessage(reqauth.ErrConfiguration,
			"configuration is invalid").CausedBy(err)
	}

	return &result, nil
}
