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

package session

import (
	"context"
)

// ReplicaChangeRequest describes one membership or leadership change
// of a single tablet. Exactly one of IsAdd, ShouldRemove and a non-zero
// NewLeader is set per request.
type ReplicaChangeRequest struct {
	TableID      int64
	TabletID     int64
	ServerID     int64
	IsAdd        bool
	ShouldRemove bool
	NewLeader    int64
}

//go:generate mockery --name=Cluster --structname=MockCluster --output=./ --filename=mock_cluster.go --with-expecter --inpackage

// Cluster is the RPC surface the balancer dispatches replica changes
// through. The production implementation lives with the transport layer
// of the catalog service; acceptance of a request only means the change
// is tracked, not that it completed.
type Cluster interface {
	SendReplicaChange(ctx context.Context, req *ReplicaChangeRequest) error
}
