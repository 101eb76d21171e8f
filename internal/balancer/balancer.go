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

// Package balancer drives the replica-placement control loop: one run
// snapshots the cluster, classifies every tablet, and dispatches a
// budget-bounded, priority-ordered set of corrective actions.
package balancer

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tessera-db/tessera/internal/balance"
	"github.com/tessera-db/tessera/internal/meta"
	"github.com/tessera-db/tessera/internal/task"
	"github.com/tessera-db/tessera/pkg/log"
	"github.com/tessera-db/tessera/pkg/metrics"
	"github.com/tessera-db/tessera/pkg/util/merr"
	"github.com/tessera-db/tessera/pkg/util/paramtable"
)

// RunReport summarizes one completed run. A run that found nothing to do
// and a run that exhausted its budget both complete normally; the latter
// reports the deferred candidates in Deferred.
type RunReport struct {
	Adds      int
	Removes   int
	Stepdowns int
	Deferred  int
	Anomalies int
	Failures  int

	// Err aggregates dispatch failures for logging; the run itself
	// never aborts on them.
	Err error
}

// Dispatched returns the total number of actions sent this run.
func (r *RunReport) Dispatched() int {
	return r.Adds + r.Removes + r.Stepdowns
}

// Balancer is the run loop. Runs are single-flight: a new run never
// starts while a previous one is still executing, whether started by the
// ticker, a manual trigger, or a direct RunOnce call.
type Balancer struct {
	provider   meta.Provider
	pending    *task.PendingTaskMap
	dispatcher task.Dispatcher
	evaluator  *balance.Evaluator

	running  atomic.Bool
	notifyCh chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewBalancer(provider meta.Provider, pending *task.PendingTaskMap, dispatcher task.Dispatcher) *Balancer {
	return &Balancer{
		provider:   provider,
		pending:    pending,
		dispatcher: dispatcher,
		evaluator:  balance.NewEvaluator(),
		notifyCh:   make(chan struct{}, 1),
	}
}

// Start launches the periodic run loop.
func (b *Balancer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = log.WithContext(ctx, log.With(log.FieldComponent("balancer")))
	b.cancel = cancel

	b.wg.Add(1)
	go b.loop(ctx)
}

func (b *Balancer) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.wg.Wait()
	})
}

// Trigger requests a run ahead of the next tick. Non-blocking; if a
// trigger is already queued this one folds into it.
func (b *Balancer) Trigger() {
	select {
	case b.notifyCh <- struct{}{}:
	default:
	}
}

func (b *Balancer) loop(ctx context.Context) {
	defer b.wg.Done()

	interval := paramtable.Get().BalancerCfg.CheckInterval.GetAsDuration(time.Millisecond)
	log.Info("balancer loop started",
		log.FieldComponent("balancer"),
		zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("balancer loop stopped")
			return

		case <-ticker.C:
			b.runAndLog(ctx)

		case <-b.notifyCh:
			ticker.Stop()
			b.runAndLog(ctx)
			ticker.Reset(interval)
		}
	}
}

func (b *Balancer) runAndLog(ctx context.Context) {
	report, err := b.RunOnce(ctx)
	if err != nil {
		log.Warn("balancer run failed", zap.Error(err))
		return
	}
	if report.Dispatched() > 0 || report.Anomalies > 0 || report.Failures > 0 {
		log.Info("balancer run finished",
			zap.Int("adds", report.Adds),
			zap.Int("removes", report.Removes),
			zap.Int("stepdowns", report.Stepdowns),
			zap.Int("deferred", report.Deferred),
			zap.Int("anomalies", report.Anomalies),
			zap.Int("failures", report.Failures))
	}
}

// RunOnce executes one full balancing pass. It returns ErrRunInProgress
// if another run is active, and a catalog error if the provider's view
// cannot be refreshed; it completes with a report in every other case.
func (b *Balancer) RunOnce(ctx context.Context) (*RunReport, error) {
	if !b.running.CompareAndSwap(false, true) {
		return nil, merr.ErrRunInProgress
	}
	defer b.running.Store(false)

	if refresher, ok := b.provider.(meta.Refresher); ok {
		if err := refresher.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	snap := balance.NewSnapshot(b.provider, b.pending)
	report := &RunReport{Anomalies: snap.Anomalies()}

	plans := b.collectPlans(snap, report)
	b.dispatchPlans(ctx, plans, report)

	metrics.BalancerRunsTotal.Inc()
	return report, nil
}

// collectPlans evaluates every tablet of every table in stable order and
// gathers the surviving candidate actions.
func (b *Balancer) collectPlans(snap *balance.Snapshot, report *RunReport) []*balance.Plan {
	cfg := &paramtable.Get().BalancerCfg
	limitStarting := cfg.AllowLimitStartingTablets.GetAsBool()
	limitOverReplicated := cfg.AllowLimitOverReplicatedTablets.GetAsBool()

	plans := make([]*balance.Plan, 0)
	for _, tableID := range snap.TableIDs() {
		for _, tablet := range snap.TabletsOf(tableID) {
			plan, err := b.evaluator.Evaluate(snap, tablet)
			if err != nil {
				report.Anomalies++
				log.Warn("tablet skipped this run",
					log.FieldTable(tableID),
					log.FieldTablet(tablet.ID),
					zap.Error(err))
				continue
			}
			if plan == nil {
				continue
			}

			// transient states are not compounded with extra load
			if plan.Action.Type() == task.ActionTypeAdd {
				if limitStarting && tablet.Starting {
					continue
				}
				rf := int(snap.PolicyFor(tableID).ReplicationFactor)
				if limitOverReplicated && len(snap.LiveHosts(tablet)) > rf {
					continue
				}
			}

			plans = append(plans, plan)
		}
	}

	// most urgent first; collection order already breaks ties by
	// table then tablet identity, keep it stable
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Condition > plans[j].Condition
	})
	return plans
}

// dispatchPlans admits candidates against the remaining add/remove
// budgets and hands them to the dispatcher. Stepdowns do not change
// membership and bypass the budgets; their per-tablet dedup is enforced
// by the pending task map.
func (b *Balancer) dispatchPlans(ctx context.Context, plans []*balance.Plan, report *RunReport) {
	cfg := &paramtable.Get().BalancerCfg
	addBudget := cfg.MaxConcurrentAdds.GetAsInt() - b.pending.Count(task.ActionTypeAdd)
	removeBudget := cfg.MaxConcurrentRemovals.GetAsInt() - b.pending.Count(task.ActionTypeRemove)

	for _, plan := range plans {
		switch plan.Action.Type() {
		case task.ActionTypeAdd:
			if addBudget <= 0 {
				report.Deferred++
				continue
			}
		case task.ActionTypeRemove:
			if removeBudget <= 0 {
				report.Deferred++
				continue
			}
		}

		if err := b.dispatcher.SendReplicaChange(ctx, plan.Action); err != nil {
			report.Failures++
			report.Err = multierr.Append(report.Err, err)
			continue
		}

		switch plan.Action.Type() {
		case task.ActionTypeAdd:
			addBudget--
			report.Adds++
		case task.ActionTypeRemove:
			removeBudget--
			report.Removes++
		case task.ActionTypeStepdown:
			report.Stepdowns++
		}
	}
}
