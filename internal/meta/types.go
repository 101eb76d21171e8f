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
	"github.com/tessera-db/tessera/pkg/util/typeutil"
)

type UniqueID = typeutil.UniqueID

// NilServer marks the absence of a server identity (e.g. leaderless tablet).
const NilServer UniqueID = 0

// PlacementBlock constrains how many replicas of a tablet must live
// inside one zone.
type PlacementBlock struct {
	Zone        string `json:"zone"`
	MinReplicas int32  `json:"min_replicas"`
}

// PlacementPolicy is the replication requirement of a table, or of the
// whole cluster when a table does not override it.
type PlacementPolicy struct {
	ReplicationFactor int32            `json:"replication_factor"`
	Blocks            []PlacementBlock `json:"blocks,omitempty"`
}

// TableMeta is the catalog record of one table.
// A zero Policy.ReplicationFactor means the table inherits the
// cluster-wide placement policy.
type TableMeta struct {
	ID     UniqueID        `json:"id"`
	Name   string          `json:"name"`
	Policy PlacementPolicy `json:"policy"`
}

// TabletMeta is the catalog record of one tablet: which servers host a
// replica, which of them leads, and whether the tablet is still
// mid-creation. The balancer never mutates it, completed actions show up
// through the catalog on a later run.
type TabletMeta struct {
	ID       UniqueID
	TableID  UniqueID
	Hosts    typeutil.UniqueSet
	Leader   UniqueID
	Starting bool
}

// HostedOn returns true if the tablet has a replica on the given server.
func (t *TabletMeta) HostedOn(serverID UniqueID) bool {
	return t.Hosts.Contain(serverID)
}

// ReplicaCount returns the number of replicas the catalog records for
// the tablet, live or not.
func (t *TabletMeta) ReplicaCount() int {
	return t.Hosts.Len()
}

func (t *TabletMeta) Clone() *TabletMeta {
	ret := *t
	ret.Hosts = t.Hosts.Clone()
	return &ret
}
