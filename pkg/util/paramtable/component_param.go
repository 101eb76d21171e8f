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

package paramtable

import "sync"

const (
	// TieBreakZoneSpread prefers the zone that best satisfies the tablet's
	// missing placement blocks, then the lowest server ID.
	TieBreakZoneSpread = "zone-spread"
	// TieBreakLowestID always prefers the lowest server ID.
	TieBreakLowestID = "lowest-id"
)

// ComponentParam holds every configuration item of the control plane,
// initialized once per process.
type ComponentParam struct {
	baseTable *BaseTable

	BalancerCfg balancerConfig
	CatalogCfg  catalogConfig
}

type balancerConfig struct {
	CheckInterval                   ParamItem
	MaxConcurrentAdds               ParamItem
	MaxConcurrentRemovals           ParamItem
	PendingTaskTimeout              ParamItem
	AllowLimitStartingTablets       ParamItem
	AllowLimitOverReplicatedTablets ParamItem
	TieBreakPolicy                  ParamItem
	MinServerVersion                ParamItem
}

type catalogConfig struct {
	MetaRootPath   ParamItem
	RequestTimeout ParamItem
}

func (p *ComponentParam) init(bt *BaseTable) {
	p.baseTable = bt

	p.BalancerCfg.CheckInterval = ParamItem{
		Key:          "balancer.checkInterval",
		DefaultValue: "3000",
		Doc:          "interval between balancer runs, in milliseconds",
	}
	p.BalancerCfg.MaxConcurrentAdds = ParamItem{
		Key:          "balancer.maxConcurrentAdds",
		DefaultValue: "8",
		Doc:          "cluster-wide ceiling on outstanding replica additions",
	}
	p.BalancerCfg.MaxConcurrentRemovals = ParamItem{
		Key:          "balancer.maxConcurrentRemovals",
		DefaultValue: "8",
		Doc:          "cluster-wide ceiling on outstanding replica removals",
	}
	p.BalancerCfg.PendingTaskTimeout = ParamItem{
		Key:          "balancer.pendingTaskTimeout",
		DefaultValue: "300000",
		Doc:          "drop an unconfirmed pending task after this long, in milliseconds",
	}
	p.BalancerCfg.AllowLimitStartingTablets = ParamItem{
		Key:          "balancer.allowLimitStartingTablets",
		DefaultValue: "true",
		Doc:          "skip adds to tablets that are still mid-creation",
	}
	p.BalancerCfg.AllowLimitOverReplicatedTablets = ParamItem{
		Key:          "balancer.allowLimitOverReplicatedTablets",
		DefaultValue: "true",
		Doc:          "skip adds to tablets that already exceed their replication factor",
	}
	p.BalancerCfg.TieBreakPolicy = ParamItem{
		Key:          "balancer.tieBreakPolicy",
		DefaultValue: TieBreakZoneSpread,
		Doc:          "tie-break among equally loaded candidate servers: zone-spread or lowest-id",
	}
	p.BalancerCfg.MinServerVersion = ParamItem{
		Key:          "balancer.minServerVersion",
		DefaultValue: "1.0.0",
		Doc:          "servers below this version never receive new replicas",
	}

	p.CatalogCfg.MetaRootPath = ParamItem{
		Key:          "catalog.metaRootPath",
		DefaultValue: "tessera/meta",
		Doc:          "etcd key prefix of the catalog records",
	}
	p.CatalogCfg.RequestTimeout = ParamItem{
		Key:          "catalog.requestTimeout",
		DefaultValue: "3000",
		Doc:          "catalog read timeout, in milliseconds",
	}

	for _, item := range []*ParamItem{
		&p.BalancerCfg.CheckInterval,
		&p.BalancerCfg.MaxConcurrentAdds,
		&p.BalancerCfg.MaxConcurrentRemovals,
		&p.BalancerCfg.PendingTaskTimeout,
		&p.BalancerCfg.AllowLimitStartingTablets,
		&p.BalancerCfg.AllowLimitOverReplicatedTablets,
		&p.BalancerCfg.TieBreakPolicy,
		&p.BalancerCfg.MinServerVersion,
		&p.CatalogCfg.MetaRootPath,
		&p.CatalogCfg.RequestTimeout,
	} {
		item.Init(bt)
	}
}

// Save overrides one item, mainly for tests.
func (p *ComponentParam) Save(key, value string) {
	p.baseTable.Save(key, value)
}

// Reset drops an override set via Save.
func (p *ComponentParam) Reset(key string) {
	p.baseTable.Reset(key)
}

var (
	params    ComponentParam
	paramOnce sync.Once
)

// Init initializes the process-wide parameter table with defaults only.
func Init() {
	paramOnce.Do(func() {
		params.init(NewBaseTable())
	})
}

// Get returns the process-wide parameter table, initializing it if needed.
func Get() *ComponentParam {
	Init()
	return &params
}
