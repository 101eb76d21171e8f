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

package meta

import (
	"context"
	"sync"

	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/pkg/util/typeutil"
)

// Provider is the read-only view of the cluster the balancer observes.
// Every method must return data from the same point-in-time view for the
// duration of one balancer run; absence of data (empty sets) is a legal
// state, not an error.
//
// Two implementations exist: CatalogProvider reads the live catalog from
// etcd, FixtureProvider serves an in-memory snapshot for tests.
type Provider interface {
	LiveServers() []*session.ServerInfo
	AffinityZones() typeutil.Set[string]
	TabletsByTable() map[UniqueID][]*TabletMeta
	Tables() map[UniqueID]*TableMeta
	PlacementPolicy() *PlacementPolicy
	Blacklist() typeutil.UniqueSet
}

// Refresher is implemented by providers whose view must be reloaded at
// the start of each run. The run loop calls Refresh before snapshotting
// when the provider supports it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FixtureProvider is the in-memory Provider used by tests and tooling.
// All setters replace whole collections, so a test builds the exact
// cluster it wants and the balancer sees it as a stable snapshot.
type FixtureProvider struct {
	mu sync.RWMutex

	servers   map[UniqueID]*session.ServerInfo
	affinity  typeutil.Set[string]
	tables    map[UniqueID]*TableMeta
	tablets   map[UniqueID][]*TabletMeta
	policy    PlacementPolicy
	blacklist typeutil.UniqueSet
}

var _ Provider = (*FixtureProvider)(nil)

func NewFixtureProvider() *FixtureProvider {
	return &FixtureProvider{
		servers:   make(map[UniqueID]*session.ServerInfo),
		affinity:  typeutil.NewSet[string](),
		tables:    make(map[UniqueID]*TableMeta),
		tablets:   make(map[UniqueID][]*TabletMeta),
		blacklist: typeutil.NewUniqueSet(),
	}
}

func (p *FixtureProvider) AddServer(server *session.ServerInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.servers[server.ID()] = server
}

func (p *FixtureProvider) RemoveServer(serverID UniqueID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.servers, serverID)
}

func (p *FixtureProvider) PutTable(table *TableMeta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[table.ID] = table
}

func (p *FixtureProvider) RemoveTable(tableID UniqueID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tables, tableID)
}

func (p *FixtureProvider) PutTablet(tablet *TabletMeta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tablets := p.tablets[tablet.TableID]
	for i := range tablets {
		if tablets[i].ID == tablet.ID {
			tablets[i] = tablet
			return
		}
	}
	p.tablets[tablet.TableID] = append(tablets, tablet)
}

func (p *FixtureProvider) SetAffinityZones(zones ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.affinity = typeutil.NewSet(zones...)
}

func (p *FixtureProvider) SetBlacklist(serverIDs ...UniqueID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blacklist = typeutil.NewUniqueSet(serverIDs...)
}

func (p *FixtureProvider) SetPlacementPolicy(policy PlacementPolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = policy
}

func (p *FixtureProvider) LiveServers() []*session.ServerInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ret := make([]*session.ServerInfo, 0, len(p.servers))
	for _, server := range p.servers {
		ret = append(ret, server)
	}
	return ret
}

func (p *FixtureProvider) AffinityZones() typeutil.Set[string] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.affinity.Clone()
}

func (p *FixtureProvider) TabletsByTable() map[UniqueID][]*TabletMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ret := make(map[UniqueID][]*TabletMeta, len(p.tablets))
	for tableID, tablets := range p.tablets {
		ret[tableID] = append([]*TabletMeta(nil), tablets...)
	}
	return ret
}

func (p *FixtureProvider) Tables() map[UniqueID]*TableMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ret := make(map[UniqueID]*TableMeta, len(p.tables))
	for id, table := range p.tables {
		ret[id] = table
	}
	return ret
}

func (p *FixtureProvider) PlacementPolicy() *PlacementPolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	policy := p.policy
	return &policy
}

func (p *FixtureProvider) Blacklist() typeutil.UniqueSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.blacklist.Clone()
}
