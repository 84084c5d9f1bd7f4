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

package redis

import (
	"crypto/tls"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/redis/rueidis"
)

type clientCache struct {
	Disabled          bool              `mapstructure:"disabled"`
	TTL               time.Duration     `mapstructure:"ttl"`
	SizePerConnection bytesize.ByteSize `mapstructure:"size_per_connection"`
}

type credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type tlsConfig struct {
	Disabled bool `mapstructure:"disabled"`
	// for test purposes only
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

type Config struct {
	Address       string        `mapstructure:"address"         validate:"required"`
	DB            int           `mapstructure:"db"              validate:"gte=0"`
	Credentials   *credentials  `mapstructure:"credentials"`
	ClientCache   clientCache   `mapstructure:"client_cache"`
	ConnTimeout   time.Duration `mapstructure:"conn_timeout"`
	MaxFlushDelay time.Duration `mapstructure:"max_flush_delay"`
	TLS           tlsConfig     `mapstructure:"tls"`
}

func (c Config) clientOptions() rueidis.ClientOption {
	opts := rueidis.ClientOption{
		ClientName:        "reqauth",
		InitAddress:       []string{c.Address},
		SelectDB:          c.DB,
		DisableCache:      c.ClientCache.Disabled,
		CacheSizeEachConn: int(c.ClientCache.SizePerConnection),
		ConnWriteTimeout:  c.ConnTimeout,
		MaxFlushDelay:     c.MaxFlushDelay,
	}

	if c.Credentials != nil {
		opts.Username = c.Credentials.Username
		opts.Password = c.Credentials.Password
	}

	if !c.TLS.Disabled {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify, //nolint:gosec
		}
	}

	return opts
}
