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
	"errors"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/reqauth/reqauth/cmd/flags"
	"github.com/reqauth/reqauth/internal/app"
	"github.com/reqauth/reqauth/internal/authenticator"
	"github.com/reqauth/reqauth/internal/config"
	"github.com/reqauth/reqauth/internal/logging"
	"github.com/reqauth/reqauth/internal/reqauth"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

const argsCount = 2

// NewRequestCommand represents the "request" command.
func NewRequestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Creates an authenticated request and prints it",
		Long: "Creates a request for the given method and url, which carries the credentials of the " +
			"configured authentication scheme, and prints it. With --send the request is performed " +
			"and the response is printed instead.",
		Example:       "reqauth request GET https://gdata.youtube.com/feeds/api/users/default -c config.yaml --send",
		Args:          cobra.ExactArgs(argsCount),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString(flags.Output)

			out, err := newRenderer(format, cmd.OutOrStdout())
			if err != nil {
				cmd.PrintErrf("Error: %v\n", err)

				return err
			}

			if err = runRequest(cmd, args[0], args[1], out); err != nil {
				out.renderError(cmd.ErrOrStderr(), err)

				return err
			}

			return nil
		},
	}

	cmd.Flags().Bool(flags.Send, false, "Sends the created request and prints the response")
	cmd.Flags().String(flags.Body, "", "Body to send along with the request. Requires --send")
	cmd.Flags().StringP(flags.Output, "o", formatText, "Output format. One of: text, json")
	cmd.Flags().String(flags.MetricsFile, "",
		"Writes token metrics in the prometheus text format to the given file")

	return cmd
}

func runRequest(cmd *cobra.Command, method, rawURL string, out *renderer) error {
	envPrefix, _ := cmd.Flags().GetString(flags.EnvironmentConfigPrefix)
	configPath, _ := cmd.Flags().GetString(flags.Config)
	send, _ := cmd.Flags().GetBool(flags.Send)
	body, _ := cmd.Flags().GetString(flags.Body)
	metricsFile, _ := cmd.Flags().GetString(flags.MetricsFile)

	if len(body) != 0 && !send {
		return errorchain.NewWithMessagef(reqauth.ErrArgument, "--%s requires --%s", flags.Body, flags.Send)
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return errorchain.NewWithMessagef(reqauth.ErrArgument, "invalid url '%s'", rawURL).CausedBy(err)
	}

	conf, err := config.NewConfiguration(config.EnvVarPrefix(envPrefix), config.ConfigurationPath(configPath))
	if err != nil {
		return err
	}

	logger := logging.NewLogger(conf.Log, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = logger.WithContext(ctx)

	var (
		auth     *authenticator.Authenticator
		gatherer prometheus.Gatherer
	)

	application, err := app.New(conf, logger, fx.Populate(&auth, &gatherer))
	if err != nil {
		return err
	}

	if err = application.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if err := application.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed stopping token cache")
		}
	}()

	if send {
		err = sendRequest(ctx, auth, method, target, []byte(body), out)
	} else {
		err = createRequest(ctx, auth, method, target, out)
	}

	if len(metricsFile) != 0 {
		if werr := prometheus.WriteToTextfile(metricsFile, gatherer); werr != nil {
			err = errors.Join(err, errorchain.NewWithMessage(reqauth.ErrInternal,
				"failed writing metrics").CausedBy(werr))
		}
	}

	return err
}
