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

package balance

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tessera-db/tessera/internal/meta"
	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/internal/task"
	"github.com/tessera-db/tessera/pkg/log"
	"github.com/tessera-db/tessera/pkg/util/merr"
	"github.com/tessera-db/tessera/pkg/util/typeutil"
)

type UniqueID = typeutil.UniqueID

// ServerLoad is the per-server replica and leader count accumulated over
// every table in the snapshot, so one table's placement never overloads a
// server that other tables already fill.
type ServerLoad struct {
	Server       *session.ServerInfo
	ReplicaCount int
	LeaderCount  int
}

// Snapshot is the point-in-time view one balancer run operates on.
// It is built once at run start from the provider and the pending task
// map and never updated mid-run, late heartbeats wait for the next run.
type Snapshot struct {
	servers        map[UniqueID]*ServerLoad
	tables         map[UniqueID]*meta.TableMeta
	tableIDs       []UniqueID
	tabletsByTable map[UniqueID][]*meta.TabletMeta
	tabletsByID    map[UniqueID]*meta.TabletMeta
	affinity       typeutil.Set[string]
	blacklist      typeutil.UniqueSet
	defaultPolicy  meta.PlacementPolicy
	pendingKinds   map[UniqueID]typeutil.Set[task.ActionType]
	anomalies      int
}

// NewSnapshot builds the run snapshot. Completed pending tasks are
// reconciled against the fresh tablet view before the pending kinds are
// captured, so the snapshot's budget accounting only charges for work
// still in flight. pending may be nil for pure classification use.
func NewSnapshot(provider meta.Provider, pending *task.PendingTaskMap) *Snapshot {
	snap := &Snapshot{
		servers:        make(map[UniqueID]*ServerLoad),
		tables:         provider.Tables(),
		tabletsByTable: make(map[UniqueID][]*meta.TabletMeta),
		tabletsByID:    make(map[UniqueID]*meta.TabletMeta),
		affinity:       provider.AffinityZones(),
		blacklist:      provider.Blacklist(),
		defaultPolicy:  *provider.PlacementPolicy(),
		pendingKinds:   make(map[UniqueID]typeutil.Set[task.ActionType]),
	}

	for _, server := range provider.LiveServers() {
		snap.servers[server.ID()] = &ServerLoad{Server: server}
	}

	// allTablets keeps even the tablets excluded below; pending tasks are
	// reconciled against it so an in-flight task survives a transient
	// anomaly instead of being mistaken for a deleted tablet
	allTablets := make(map[UniqueID]*meta.TabletMeta)
	for tableID, tablets := range provider.TabletsByTable() {
		for _, tablet := range tablets {
			allTablets[tablet.ID] = tablet
		}
		if _, ok := snap.tables[tableID]; !ok {
			log.Warn("tablets reference a table the catalog does not know, skip them this run",
				log.FieldTable(tableID),
				zap.Error(merr.WrapErrTableNotFound(tableID)),
				zap.Int("tablets", len(tablets)))
			snap.anomalies += len(tablets)
			continue
		}
		sorted := append([]*meta.TabletMeta(nil), tablets...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		snap.tabletsByTable[tableID] = sorted
		for _, tablet := range sorted {
			snap.tabletsByID[tablet.ID] = tablet
		}
	}

	snap.tableIDs = make([]UniqueID, 0, len(snap.tables))
	for tableID := range snap.tables {
		snap.tableIDs = append(snap.tableIDs, tableID)
	}
	sort.Slice(snap.tableIDs, func(i, j int) bool { return snap.tableIDs[i] < snap.tableIDs[j] })

	// replicas on servers absent from the live set count as missing
	for _, tablet := range snap.tabletsByID {
		for host := range tablet.Hosts {
			if load, ok := snap.servers[host]; ok {
				load.ReplicaCount++
				if tablet.Leader == host {
					load.LeaderCount++
				}
			}
		}
	}

	if pending != nil {
		pending.Reconcile(allTablets)
		for _, tableID := range snap.tableIDs {
			adds, removes, stepdowns := pending.PendingTasks(tableID)
			byKind := []struct {
				kind  task.ActionType
				tasks map[UniqueID]*task.PendingTask
			}{
				{task.ActionTypeAdd, adds},
				{task.ActionTypeRemove, removes},
				{task.ActionTypeStepdown, stepdowns},
			}
			for _, group := range byKind {
				for tabletID := range group.tasks {
					kinds, ok := snap.pendingKinds[tabletID]
					if !ok {
						kinds = typeutil.NewSet[task.ActionType]()
						snap.pendingKinds[tabletID] = kinds
					}
					kinds.Insert(group.kind)
				}
			}
		}
	}

	return snap
}

// TableIDs returns every known table, sorted for deterministic iteration.
func (s *Snapshot) TableIDs() []UniqueID {
	return s.tableIDs
}

func (s *Snapshot) Table(tableID UniqueID) *meta.TableMeta {
	return s.tables[tableID]
}

// TabletsOf returns the table's tablets sorted by identity.
func (s *Snapshot) TabletsOf(tableID UniqueID) []*meta.TabletMeta {
	return s.tabletsByTable[tableID]
}

func (s *Snapshot) Tablet(tabletID UniqueID) *meta.TabletMeta {
	return s.tabletsByID[tabletID]
}

// PolicyFor resolves the placement policy of a table, falling back to
// the cluster-wide policy when the table does not carry its own.
func (s *Snapshot) PolicyFor(tableID UniqueID) meta.PlacementPolicy {
	if table, ok := s.tables[tableID]; ok && table.Policy.ReplicationFactor > 0 {
		return table.Policy
	}
	return s.defaultPolicy
}

func (s *Snapshot) IsLive(serverID UniqueID) bool {
	_, ok := s.servers[serverID]
	return ok
}

func (s *Snapshot) ServerLoad(serverID UniqueID) *ServerLoad {
	return s.servers[serverID]
}

// Servers returns the per-server loads, sorted by server ID.
func (s *Snapshot) Servers() []*ServerLoad {
	ret := make([]*ServerLoad, 0, len(s.servers))
	for _, load := range s.servers {
		ret = append(ret, load)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Server.ID() < ret[j].Server.ID() })
	return ret
}

// LiveHosts returns the tablet's replicas that are on live servers,
// sorted by server ID.
func (s *Snapshot) LiveHosts(tablet *meta.TabletMeta) []UniqueID {
	ret := make([]UniqueID, 0, tablet.Hosts.Len())
	for host := range tablet.Hosts {
		if s.IsLive(host) {
			ret = append(ret, host)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// BlacklistedHosts returns the tablet's replicas on decommissioning
// servers, live or not, sorted by server ID.
func (s *Snapshot) BlacklistedHosts(tablet *meta.TabletMeta) []UniqueID {
	ret := make([]UniqueID, 0, 1)
	for host := range tablet.Hosts {
		if s.blacklist.Contain(host) {
			ret = append(ret, host)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

func (s *Snapshot) AffinityZones() typeutil.Set[string] {
	return s.affinity
}

func (s *Snapshot) Blacklist() typeutil.UniqueSet {
	return s.blacklist
}

// HasPending returns true if a task of the given kind was outstanding
// for the tablet when the snapshot was taken.
func (s *Snapshot) HasPending(tabletID UniqueID, typ task.ActionType) bool {
	return s.pendingKinds[tabletID].Contain(typ)
}

// Anomalies counts the tablets dropped from this snapshot due to
// inconsistent metadata. They are retried on the next run.
func (s *Snapshot) Anomalies() int {
	return s.anomalies
}
