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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/pkg/util/merr"
)

type DispatcherTestSuite struct {
	suite.Suite
	cluster    *session.MockCluster
	pending    *PendingTaskMap
	dispatcher *ClusterDispatcher
}

func (suite *DispatcherTestSuite) SetupTest() {
	suite.cluster = session.NewMockCluster(suite.T())
	suite.pending = NewPendingTaskMap()
	suite.dispatcher = NewClusterDispatcher(suite.cluster, suite.pending)
}

func (suite *DispatcherTestSuite) TestSendRecordsPending() {
	suite.cluster.EXPECT().SendReplicaChange(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req *session.ReplicaChangeRequest) error {
			suite.EqualValues(100, req.TableID)
			suite.EqualValues(1, req.TabletID)
			suite.EqualValues(3, req.ServerID)
			suite.True(req.IsAdd)
			suite.False(req.ShouldRemove)
			suite.Zero(req.NewLeader)
			// the pending entry is visible before the RPC returns
			suite.True(suite.pending.Has(1, ActionTypeAdd))
			return nil
		}).Once()

	err := suite.dispatcher.SendReplicaChange(context.Background(), NewReplicaAction(100, 1, 3, ActionTypeAdd))
	suite.NoError(err)
	suite.True(suite.pending.Has(1, ActionTypeAdd))
}

func (suite *DispatcherTestSuite) TestStepdownCarriesNewLeader() {
	suite.cluster.EXPECT().SendReplicaChange(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req *session.ReplicaChangeRequest) error {
			suite.False(req.IsAdd)
			suite.False(req.ShouldRemove)
			suite.EqualValues(2, req.NewLeader)
			return nil
		}).Once()

	err := suite.dispatcher.SendReplicaChange(context.Background(), NewReplicaAction(100, 1, 2, ActionTypeStepdown))
	suite.NoError(err)
	suite.True(suite.pending.Has(1, ActionTypeStepdown))
}

func (suite *DispatcherTestSuite) TestFailedDispatchRollsBack() {
	suite.cluster.EXPECT().SendReplicaChange(mock.Anything, mock.Anything).
		Return(errors.New("connection refused")).Once()

	err := suite.dispatcher.SendReplicaChange(context.Background(), NewReplicaAction(100, 1, 3, ActionTypeAdd))
	suite.ErrorIs(err, merr.ErrDispatchRejected)
	suite.False(suite.pending.Has(1, ActionTypeAdd), "rejected action must be re-proposable")
}

func (suite *DispatcherTestSuite) TestDuplicateSkipsRPC() {
	suite.cluster.EXPECT().SendReplicaChange(mock.Anything, mock.Anything).Return(nil).Once()

	ctx := context.Background()
	suite.NoError(suite.dispatcher.SendReplicaChange(ctx, NewReplicaAction(100, 1, 3, ActionTypeAdd)))

	err := suite.dispatcher.SendReplicaChange(ctx, NewReplicaAction(100, 1, 4, ActionTypeAdd))
	suite.ErrorIs(err, merr.ErrPendingTaskConflict)
	suite.cluster.AssertNumberOfCalls(suite.T(), "SendReplicaChange", 1)
}

func TestDispatcher(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}
