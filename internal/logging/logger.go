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

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reqauth/reqauth/internal/config"
	"github.com/reqauth/reqauth/internal/x"
)

//nolint:gochecknoglobals
var gelfFieldNames sync.Once

// NewLogger creates a logger writing human readable lines for the text format and GELF 1.1
// JSON documents otherwise.
func NewLogger(conf config.LoggingConfig, out io.Writer) zerolog.Logger {
	if conf.Format == config.LogGelfFormat {
		return newGelfLogger(out, conf.Level)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(conf.Level).
		With().Timestamp().Logger()
}

func newGelfLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	// zerolog field names are process wide
	gelfFieldNames.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		zerolog.TimestampFieldName = "timestamp"
		zerolog.MessageFieldName = "short_message"
		zerolog.ErrorFieldName = "_error" // nolint: reassign
		zerolog.LevelFieldName = "_level_name"
		zerolog.LevelFieldMarshalFunc = func(l zerolog.Level) string { return strings.ToUpper(l.String()) }
	})

	hostname, err := os.Hostname()

	return zerolog.New(out).Level(level).Hook(syslogLevelHook{}).With().
		Str("version", "1.1").
		Str("host", x.IfThenElse(err == nil, hostname, "unknown")).
		Timestamp().
		Logger()
}
