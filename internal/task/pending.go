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

package task

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tessera-db/tessera/internal/meta"
	"github.com/tessera-db/tessera/pkg/log"
	"github.com/tessera-db/tessera/pkg/metrics"
	"github.com/tessera-db/tessera/pkg/util/merr"
	"github.com/tessera-db/tessera/pkg/util/paramtable"
)

// PendingTask is one dispatched but not yet confirmed replica change.
type PendingTask struct {
	TabletID  UniqueID
	TableID   UniqueID
	ServerID  UniqueID
	Type      ActionType
	CreatedAt time.Time
}

// PendingTaskMap tracks outstanding replica changes, keyed by
// (tablet, action kind). It enforces the at-most-one invariant: a second
// reservation for the same pair fails until the first is released or
// confirmed through the catalog.
//
// The map is identifier-keyed on purpose, it never holds references into
// catalog metadata, so ownership stays with the balancer alone.
type PendingTaskMap struct {
	mu    sync.RWMutex
	tasks map[UniqueID]map[ActionType]*PendingTask
}

func NewPendingTaskMap() *PendingTaskMap {
	return &PendingTaskMap{
		tasks: make(map[UniqueID]map[ActionType]*PendingTask),
	}
}

// Reserve records an outstanding task for the action's (tablet, kind)
// pair, failing if one already exists.
func (m *PendingTaskMap) Reserve(action *ReplicaAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kinds, ok := m.tasks[action.TabletID()]
	if !ok {
		kinds = make(map[ActionType]*PendingTask)
		m.tasks[action.TabletID()] = kinds
	}
	if _, exists := kinds[action.Type()]; exists {
		return merr.WrapErrPendingTaskConflict(action.TabletID(), action.Type().String())
	}

	kinds[action.Type()] = &PendingTask{
		TabletID:  action.TabletID(),
		TableID:   action.TableID(),
		ServerID:  action.Server(),
		Type:      action.Type(),
		CreatedAt: time.Now(),
	}
	m.updateGauge(action.Type())
	return nil
}

// Release drops a reservation, used to roll back a failed dispatch.
func (m *PendingTaskMap) Release(tabletID UniqueID, typ ActionType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(tabletID, typ)
}

// Has returns true if a task of the given kind is outstanding for the tablet.
func (m *PendingTaskMap) Has(tabletID UniqueID, typ ActionType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tasks[tabletID][typ]
	return ok
}

// Count returns the number of outstanding tasks of the given kind,
// cluster-wide. Budgets are charged against this.
func (m *PendingTaskMap) Count(typ ActionType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, kinds := range m.tasks {
		if _, ok := kinds[typ]; ok {
			count++
		}
	}
	return count
}

// PendingTasks returns the outstanding add, remove and stepdown tasks of
// one table, each keyed by tablet.
func (m *PendingTaskMap) PendingTasks(tableID UniqueID) (adds, removes, stepdowns map[UniqueID]*PendingTask) {
	adds = make(map[UniqueID]*PendingTask)
	removes = make(map[UniqueID]*PendingTask)
	stepdowns = make(map[UniqueID]*PendingTask)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for tabletID, kinds := range m.tasks {
		for typ, task := range kinds {
			if task.TableID != tableID {
				continue
			}
			switch typ {
			case ActionTypeAdd:
				adds[tabletID] = task
			case ActionTypeRemove:
				removes[tabletID] = task
			case ActionTypeStepdown:
				stepdowns[tabletID] = task
			}
		}
	}
	return adds, removes, stepdowns
}

// Reconcile clears every task whose effect is now visible in the catalog
// view: an added replica present on its target, a removed replica gone,
// a leadership on its stepdown target. Tasks of tablets the catalog no
// longer knows are dropped as well; callers must pass the complete tablet
// view, including tablets excluded from evaluation this run, so a
// transient anomaly is not mistaken for deletion. Tasks outstanding for
// longer than the configured timeout are dropped for re-proposal, an
// accepted command that never materializes must not wedge its
// (tablet, kind) slot forever.
//
// Called once per run, after the snapshot is taken and before candidates
// are evaluated, so completed work stops counting against budgets.
func (m *PendingTaskMap) Reconcile(tablets map[UniqueID]*meta.TabletMeta) {
	timeout := paramtable.Get().BalancerCfg.PendingTaskTimeout.GetAsDuration(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	for tabletID, kinds := range m.tasks {
		tablet, known := tablets[tabletID]
		for typ, task := range kinds {
			if time.Since(task.CreatedAt) > timeout {
				log.Warn("pending task timed out, drop it for re-proposal",
					log.FieldTablet(tabletID),
					log.FieldServer(task.ServerID),
					zap.String("kind", typ.String()),
					zap.Time("createdAt", task.CreatedAt))
				m.remove(tabletID, typ)
				continue
			}

			done := false
			switch {
			case !known:
				done = true
			case typ == ActionTypeAdd:
				done = tablet.HostedOn(task.ServerID)
			case typ == ActionTypeRemove:
				done = !tablet.HostedOn(task.ServerID)
			case typ == ActionTypeStepdown:
				done = tablet.Leader == task.ServerID
			}
			if done {
				log.Debug("pending task confirmed complete",
					log.FieldTablet(tabletID),
					zap.String("kind", typ.String()))
				m.remove(tabletID, typ)
			}
		}
	}
}

// remove deletes one entry, caller must hold the write lock.
func (m *PendingTaskMap) remove(tabletID UniqueID, typ ActionType) {
	kinds, ok := m.tasks[tabletID]
	if !ok {
		return
	}
	if _, ok := kinds[typ]; !ok {
		return
	}
	delete(kinds, typ)
	if len(kinds) == 0 {
		delete(m.tasks, tabletID)
	}
	m.updateGauge(typ)
}

// updateGauge refreshes the pending gauge of one kind,
// caller must hold at least the read lock.
func (m *PendingTaskMap) updateGauge(typ ActionType) {
	count := 0
	for _, kinds := range m.tasks {
		if _, ok := kinds[typ]; ok {
			count++
		}
	}
	metrics.BalancerPendingTasks.WithLabelValues(typ.String()).Set(float64(count))
}
