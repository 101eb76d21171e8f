// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	tesseraNamespace  = "tessera"
	balancerSubsystem = "balancer"

	// balancer metric labels
	LabelActionKind = "kind"

	// balancer metric label values
	ActionKindAdd      = "add"
	ActionKindRemove   = "remove"
	ActionKindStepdown = "stepdown"
)

var BalancerDispatchedActions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: tesseraNamespace,
		Subsystem: balancerSubsystem,
		Name:      "dispatched_actions_total",
		Help:      "Total number of replica-change actions dispatched, by kind",
	}, []string{
		LabelActionKind,
	},
)

var BalancerDispatchFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: tesseraNamespace,
		Subsystem: balancerSubsystem,
		Name:      "dispatch_failures_total",
		Help:      "Total number of replica-change actions rejected at dispatch, by kind",
	}, []string{
		LabelActionKind,
	},
)

var BalancerRunsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: tesseraNamespace,
		Subsystem: balancerSubsystem,
		Name:      "runs_total",
		Help:      "Total number of completed balancer runs",
	},
)

var BalancerPendingTasks = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: tesseraNamespace,
		Subsystem: balancerSubsystem,
		Name:      "pending_tasks",
		Help:      "Outstanding replica-change tasks tracked by the balancer, by kind",
	}, []string{
		LabelActionKind,
	},
)

var BalancerLiveServers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: tesseraNamespace,
		Subsystem: balancerSubsystem,
		Name:      "live_servers",
		Help:      "Number of live storage servers known to the registry",
	},
)

var registerOnce sync.Once

// Register registers the balancer collectors with the given registry.
// Safe to call more than once.
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(BalancerDispatchedActions)
		r.MustRegister(BalancerDispatchFailures)
		r.MustRegister(BalancerRunsTotal)
		r.MustRegister(BalancerPendingTasks)
		r.MustRegister(BalancerLiveServers)
	})
}
