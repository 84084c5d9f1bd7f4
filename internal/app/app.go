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

package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/reqauth/reqauth/internal/config"
	"github.com/reqauth/reqauth/internal/x/errorchain"
)

// App is an assembled Module. Components are obtained via fx.Populate or fx.Invoke options
// passed to New. The token cache is started by Start and stopped by Stop.
type App struct {
	app *fx.App
}

func New(conf *config.Configuration, logger zerolog.Logger, opts ...fx.Option) (*App, error) {
	app := fx.New(
		fx.Supply(conf, logger),
		fx.WithLogger(func() fxevent.Logger { return &eventLogger{l: logger} }),
		Module,
		fx.Options(opts...),
	)

	if err := app.Err(); err != nil {
		return nil, rootError(err)
	}

	return &App{app: app}, nil
}

func (a *App) Start(ctx context.Context) error { return rootError(a.app.Start(ctx)) }

func (a *App) Stop(ctx context.Context) error { return rootError(a.app.Stop(ctx)) }

// rootError strips the dependency graph context fx adds to errors raised by constructors and
// hooks.
func rootError(err error) error {
	var chain *errorchain.ErrorChain
	if errors.As(err, &chain) {
		return chain
	}

	return err
}
