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
	"context"

	"go.uber.org/zap"

	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/pkg/log"
	"github.com/tessera-db/tessera/pkg/metrics"
	"github.com/tessera-db/tessera/pkg/util/merr"
)

// Dispatcher sends one replica change and records it as outstanding.
// It never waits for the change to complete; completion is observed on a
// later run through updated tablet metadata.
type Dispatcher interface {
	SendReplicaChange(ctx context.Context, action *ReplicaAction) error
}

// ClusterDispatcher dispatches through the catalog service's RPC surface.
// The pending entry is reserved before the RPC and rolled back if the RPC
// fails, so a rejected action is eligible for re-proposal next run.
type ClusterDispatcher struct {
	cluster session.Cluster
	pending *PendingTaskMap
}

var _ Dispatcher = (*ClusterDispatcher)(nil)

func NewClusterDispatcher(cluster session.Cluster, pending *PendingTaskMap) *ClusterDispatcher {
	return &ClusterDispatcher{
		cluster: cluster,
		pending: pending,
	}
}

func (d *ClusterDispatcher) SendReplicaChange(ctx context.Context, action *ReplicaAction) error {
	if err := d.pending.Reserve(action); err != nil {
		return err
	}

	req := &session.ReplicaChangeRequest{
		TableID:  action.TableID(),
		TabletID: action.TabletID(),
		ServerID: action.Server(),
	}
	switch action.Type() {
	case ActionTypeAdd:
		req.IsAdd = true
	case ActionTypeRemove:
		req.ShouldRemove = true
	case ActionTypeStepdown:
		req.NewLeader = action.Server()
	}

	if err := d.cluster.SendReplicaChange(ctx, req); err != nil {
		d.pending.Release(action.TabletID(), action.Type())
		metrics.BalancerDispatchFailures.WithLabelValues(action.Type().String()).Inc()
		log.Warn("replica change dispatch failed",
			log.FieldTablet(action.TabletID()),
			log.FieldServer(action.Server()),
			zap.String("kind", action.Type().String()),
			zap.Error(err))
		return merr.WrapErrDispatchRejected(action.TabletID(), action.Server(), err.Error())
	}

	metrics.BalancerDispatchedActions.WithLabelValues(action.Type().String()).Inc()
	return nil
}
