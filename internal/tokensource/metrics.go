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

package tokensource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "reqauth"
	metricsSubsystem = "token"

	resultSuccess = "success"
	resultFailure = "failure"
)

type MetricsOption func(o *metricsOptions)

type metricsOptions struct {
	registerer prometheus.Registerer
}

// WithRegisterer sets the registerer the collectors are registered with. If not set,
// the collectors are created, but not registered anywhere.
func WithRegisterer(registerer prometheus.Registerer) MetricsOption {
	return func(o *metricsOptions) {
		o.registerer = registerer
	}
}

// Metrics holds the collectors shared by all token sources of a process.
type Metrics struct {
	fetches   *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
}

func NewMetrics(opts ...MetricsOption) *Metrics {
	var options metricsOptions

	for _, opt := range opts {
		opt(&options)
	}

	return &Metrics{
		fetches: promauto.With(options.registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "fetches_total"),
				Help: "Count of token fetches from the issuer by token source and result.",
			},
			[]string{"source", "result"},
		),
		cacheHits: promauto.With(options.registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "cache_hits_total"),
				Help: "Count of tokens served from cache by token source.",
			},
			[]string{"source"},
		),
	}
}

func (m *Metrics) fetched(source string, err error) {
	if m == nil {
		return
	}

	result := resultSuccess
	if err != nil {
		result = resultFailure
	}

	m.fetches.WithLabelValues(source, result).Inc()
}

func (m *Metrics) cacheHit(source string) {
	if m == nil {
		return
	}

	m.cacheHits.WithLabelValues(source).Inc()
}
