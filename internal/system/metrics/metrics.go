/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rcs"

var (
	RegionResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "resolutions_total",
			Help:      "Total number of region resolutions by resolved region and lookup source",
		},
		[]string{"region", "source"},
	)
	GeoProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "provider_errors_total",
			Help:      "Total number of failed country lookups by provider",
		},
		[]string{"provider"},
	)
	BlockedResources = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocking",
			Name:      "blocked_total",
			Help:      "Total number of resources blocked pending consent",
		},
		[]string{"rule_id", "category"},
	)
	ReplayedResources = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocking",
			Name:      "replayed_total",
			Help:      "Total number of queued resources released after consent was granted",
		},
		[]string{"category"},
	)
	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "emitted_total",
			Help:      "Total number of signal payloads emitted by protocol",
		},
		[]string{"protocol"},
	)
	EmitterErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "emitter_errors_total",
			Help:      "Total number of failed event publications by emitter",
		},
		[]string{"emitter"},
	)
	ConsentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consent",
			Name:      "operations_total",
			Help:      "Total number of consent store operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

var registerMetrics sync.Once

func init() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(
			RegionResolutions,
			GeoProviderErrors,
			BlockedResources,
			ReplayedResources,
			SignalsEmitted,
			EmitterErrors,
			ConsentOperations,
		)
	})
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome returns the outcome label for an operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
