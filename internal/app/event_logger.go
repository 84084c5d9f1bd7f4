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
	"github.com/rs/zerolog"
	"go.uber.org/fx/fxevent"
)

// eventLogger writes the fx lifecycle events to the application logger. Failures are logged at
// debug level only, since they are returned to the caller anyway.
type eventLogger struct {
	l zerolog.Logger
}

func (e *eventLogger) LogEvent(event fxevent.Event) {
	switch evt := event.(type) {
	case *fxevent.OnStartExecuted:
		if evt.Err != nil {
			e.l.Debug().Err(evt.Err).
				Str("_function", evt.FunctionName).
				Msg("OnStart hook failed")
		} else {
			e.l.Trace().
				Str("_function", evt.FunctionName).
				Str("_runtime", evt.Runtime.String()).
				Msg("OnStart hook executed")
		}
	case *fxevent.OnStopExecuted:
		if evt.Err != nil {
			e.l.Debug().Err(evt.Err).
				Str("_function", evt.FunctionName).
				Msg("OnStop hook failed")
		} else {
			e.l.Trace().
				Str("_function", evt.FunctionName).
				Str("_runtime", evt.Runtime.String()).
				Msg("OnStop hook executed")
		}
	case *fxevent.Provided:
		if evt.Err != nil {
			e.l.Debug().Err(evt.Err).
				Str("_constructor", evt.ConstructorName).
				Msg("Error encountered while providing component")
		} else {
			e.l.Trace().
				Str("_constructor", evt.ConstructorName).
				Strs("_type", evt.OutputTypeNames).
				Msg("Component provided")
		}
	case *fxevent.Invoked:
		if evt.Err != nil {
			e.l.Debug().Err(evt.Err).
				Str("_function", evt.FunctionName).
				Msg("Invoke failed")
		}
	case *fxevent.RollingBack:
		e.l.Debug().Err(evt.StartErr).Msg("Start failed, rolling back")
	case *fxevent.Started:
		if evt.Err == nil {
			e.l.Trace().Msg("Started")
		}
	case *fxevent.Stopped:
		if evt.Err == nil {
			e.l.Trace().Msg("Stopped")
		}
	}
}
