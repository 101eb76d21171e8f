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
	"encoding/json"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/pkg/log"
	"github.com/tessera-db/tessera/pkg/util/merr"
	"github.com/tessera-db/tessera/pkg/util/paramtable"
	"github.com/tessera-db/tessera/pkg/util/retry"
	"github.com/tessera-db/tessera/pkg/util/typeutil"
)

// Catalog key layout, all under the configured meta root path:
//
//	tables/{tableID}            -> TableMeta (json)
//	tablets/{tableID}/{tabletID} -> tabletRecord (json)
//	policy                      -> PlacementPolicy (json)
//	blacklist/{serverID}        -> (key presence only)
//	affinity/{zone}             -> (key presence only)
const (
	tablesPrefix    = "tables"
	tabletsPrefix   = "tablets"
	policyKey       = "policy"
	blacklistPrefix = "blacklist"
	affinityPrefix  = "affinity"
)

// tabletRecord is the wire form of TabletMeta, hosts as a plain list.
type tabletRecord struct {
	ID       UniqueID   `json:"id"`
	TableID  UniqueID   `json:"table_id"`
	Hosts    []UniqueID `json:"hosts"`
	Leader   UniqueID   `json:"leader"`
	Starting bool       `json:"starting,omitempty"`
}

// CatalogProvider is the production Provider, backed by the catalog
// records in etcd and by the server registry fed from heartbeats.
//
// Refresh reads the whole meta root with a single ranged Get, so every
// record comes from one etcd revision and a run observes a consistent
// point-in-time view. The loaded view is immutable until the next
// Refresh.
type CatalogProvider struct {
	cli       *clientv3.Client
	rootPath  string
	serverMgr session.Manager

	mu   sync.RWMutex
	view catalogView
}

type catalogView struct {
	tables    map[UniqueID]*TableMeta
	tablets   map[UniqueID][]*TabletMeta
	policy    PlacementPolicy
	blacklist typeutil.UniqueSet
	affinity  typeutil.Set[string]
}

func newCatalogView() catalogView {
	return catalogView{
		tables:    make(map[UniqueID]*TableMeta),
		tablets:   make(map[UniqueID][]*TabletMeta),
		blacklist: typeutil.NewUniqueSet(),
		affinity:  typeutil.NewSet[string](),
	}
}

// apply routes one catalog record into the view by its key, relative to
// the meta root path. Malformed records are skipped with a warning, one
// bad record must not block the rest of the refresh. Keys outside the
// known layout are ignored.
func (v *catalogView) apply(key string, value []byte) {
	switch {
	case key == policyKey:
		if err := json.Unmarshal(value, &v.policy); err != nil {
			log.Warn("skip malformed placement policy record", zap.Error(err))
		}

	case strings.HasPrefix(key, tablesPrefix+"/"):
		table := &TableMeta{}
		if err := json.Unmarshal(value, table); err != nil {
			log.Warn("skip malformed table record", zap.String("key", key), zap.Error(err))
			return
		}
		v.tables[table.ID] = table

	case strings.HasPrefix(key, tabletsPrefix+"/"):
		record := &tabletRecord{}
		if err := json.Unmarshal(value, record); err != nil {
			log.Warn("skip malformed tablet record", zap.String("key", key), zap.Error(err))
			return
		}
		tablet := &TabletMeta{
			ID:       record.ID,
			TableID:  record.TableID,
			Hosts:    typeutil.NewUniqueSet(record.Hosts...),
			Leader:   record.Leader,
			Starting: record.Starting,
		}
		v.tablets[tablet.TableID] = append(v.tablets[tablet.TableID], tablet)

	case strings.HasPrefix(key, blacklistPrefix+"/"):
		id, err := strconv.ParseInt(path.Base(key), 10, 64)
		if err != nil {
			log.Warn("skip malformed blacklist record", zap.String("key", key), zap.Error(err))
			return
		}
		v.blacklist.Insert(id)

	case strings.HasPrefix(key, affinityPrefix+"/"):
		v.affinity.Insert(path.Base(key))
	}
}

var (
	_ Provider  = (*CatalogProvider)(nil)
	_ Refresher = (*CatalogProvider)(nil)
)

func NewCatalogProvider(cli *clientv3.Client, serverMgr session.Manager) *CatalogProvider {
	return &CatalogProvider{
		cli:       cli,
		rootPath:  paramtable.Get().CatalogCfg.MetaRootPath.GetValue(),
		serverMgr: serverMgr,
		view:      newCatalogView(),
	}
}

// Refresh reloads every catalog record at a single etcd revision.
func (p *CatalogProvider) Refresh(ctx context.Context) error {
	timeout := paramtable.Get().CatalogCfg.RequestTimeout.GetAsDuration(time.Millisecond)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp *clientv3.GetResponse
	err := retry.Do(ctx, func() error {
		var err error
		resp, err = p.cli.Get(ctx, p.rootPath+"/", clientv3.WithPrefix())
		return err
	}, retry.Attempts(3), retry.Sleep(100*time.Millisecond))
	if err != nil {
		return merr.WrapErrCatalogUnhealthy(err)
	}

	view := newCatalogView()
	for _, kv := range resp.Kvs {
		view.apply(strings.TrimPrefix(string(kv.Key), p.rootPath+"/"), kv.Value)
	}

	p.mu.Lock()
	p.view = view
	p.mu.Unlock()

	log.Info("catalog view refreshed",
		zap.Int64("revision", resp.Header.GetRevision()),
		zap.Int("tables", len(view.tables)),
		zap.Int("blacklisted", view.blacklist.Len()))
	return nil
}

func (p *CatalogProvider) LiveServers() []*session.ServerInfo {
	return p.serverMgr.GetAll()
}

func (p *CatalogProvider) AffinityZones() typeutil.Set[string] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view.affinity
}

func (p *CatalogProvider) TabletsByTable() map[UniqueID][]*TabletMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view.tablets
}

func (p *CatalogProvider) Tables() map[UniqueID]*TableMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view.tables
}

func (p *CatalogProvider) PlacementPolicy() *PlacementPolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	policy := p.view.policy
	return &policy
}

func (p *CatalogProvider) Blacklist() typeutil.UniqueSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view.blacklist
}
