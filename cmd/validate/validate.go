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

package validate

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/reqauth/reqauth/cmd/flags"
	"github.com/reqauth/reqauth/internal/app"
	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/config"
)

var ErrNoConfigFile = errors.New("no config file provided")

// NewValidateCommand represents the "validate" command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Commands for validating reqauth's configuration",
	}

	cmd.AddCommand(NewValidateConfigCommand())

	return cmd
}

// NewValidateConfigCommand represents the "validate config" command.
func NewValidateConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "config",
		Short:        "Validates reqauth's configuration",
		Example:      "reqauth validate config -c myconfig.yaml",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateConfig(cmd); err != nil {
				return err
			}

			cmd.Println("Configuration is valid")

			return nil
		},
	}
}

func validateConfig(cmd *cobra.Command) error {
	envPrefix, _ := cmd.Flags().GetString(flags.EnvironmentConfigPrefix)
	configPath, _ := cmd.Flags().GetString(flags.Config)

	if len(configPath) == 0 {
		return ErrNoConfigFile
	}

	conf, err := config.NewConfiguration(config.EnvVarPrefix(envPrefix), config.ConfigurationPath(configPath))
	if err != nil {
		return err
	}

	// creates the configured scheme and token cache, which validates their type specific settings
	_, err = app.New(conf, zerolog.Nop(), fx.Invoke(func(*authenticator.Authenticator) {}))

	return err
}
