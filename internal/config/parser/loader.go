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

package parser

import (
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

type Option func(l *loader)

// WithConfigFile sets the YAML file to read. Blank names are ignored.
func WithConfigFile(file string) Option {
	return func(l *loader) { l.file = strings.TrimSpace(file) }
}

// WithEnvPrefix enables overrides from environment variables starting with prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) { l.envPrefix = strings.TrimSpace(prefix) }
}

func WithDecodeHookFunc(hook mapstructure.DecodeHookFunc) Option {
	return func(l *loader) {
		if hook != nil {
			l.hooks = append(l.hooks, hook)
		}
	}
}

type loader struct {
	file      string
	envPrefix string
	hooks     []mapstructure.DecodeHookFunc
}

// Load fills config. The values config already holds are the defaults. The config file, if
// any, overrides them and is itself overridden by the environment.
func Load(config any, opts ...Option) error {
	l := &loader{
		hooks: []mapstructure.DecodeHookFunc{
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	merged, err := koanfFromStruct(config)
	if err != nil {
		return err
	}

	var sources []func() (*koanf.Koanf, error)

	if len(l.file) != 0 {
		if _, err = os.Stat(l.file); err != nil {
			return err
		}

		sources = append(sources, func() (*koanf.Koanf, error) { return koanfFromYaml(l.file) })
	}

	if len(l.envPrefix) != 0 {
		sources = append(sources, func() (*koanf.Koanf, error) { return koanfFromEnv(l.envPrefix) })
	}

	for _, source := range sources {
		konf, err := source()
		if err != nil {
			return err
		}

		if err = merged.Load(confmap.Provider(konf.Raw(), ""), nil); err != nil {
			return err
		}
	}

	return merged.UnmarshalWithConf("", config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(l.hooks...),
			Result:           config,
			WeaklyTypedInput: true,
		},
	})
}
