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
	"testing"
	"time"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/suite"
)

type ServerManagerSuite struct {
	suite.Suite
	manager *ServerManager
}

func (suite *ServerManagerSuite) SetupTest() {
	suite.manager = NewServerManager()
}

func (suite *ServerManagerSuite) server(id int64, zone string) *ServerInfo {
	return NewServerInfo(ImmutableServerInfo{
		ServerID: id,
		Address:  "localhost:9000",
		Zone:     zone,
		Version:  semver.MustParse("1.2.0"),
	})
}

func (suite *ServerManagerSuite) TestAddGetRemove() {
	suite.manager.Add(suite.server(1, "zone-a"))
	suite.manager.Add(suite.server(2, "zone-b"))

	server := suite.manager.Get(1)
	suite.Require().NotNil(server)
	suite.EqualValues(1, server.ID())
	suite.Equal("zone-a", server.Zone())
	suite.Len(suite.manager.GetAll(), 2)

	suite.manager.Remove(1)
	suite.Nil(suite.manager.Get(1))
	suite.Len(suite.manager.GetAll(), 1)
}

func (suite *ServerManagerSuite) TestAddReplacesSession() {
	suite.manager.Add(suite.server(1, "zone-a"))
	suite.manager.Add(suite.server(1, "zone-b"))

	suite.Len(suite.manager.GetAll(), 1)
	suite.Equal("zone-b", suite.manager.Get(1).Zone())
}

func (suite *ServerManagerSuite) TestStoppingKeepsServerVisible() {
	suite.manager.Add(suite.server(1, "zone-a"))
	suite.manager.Stopping(1)

	server := suite.manager.Get(1)
	suite.Require().NotNil(server)
	suite.True(server.IsStoppingState())
	suite.Equal("stopping", server.GetState().String())

	// stopping an unknown server is a no-op
	suite.manager.Stopping(42)
	suite.Nil(suite.manager.Get(42))
}

func (suite *ServerManagerSuite) TestHeartbeatStats() {
	server := suite.server(1, "zone-a")
	suite.manager.Add(server)

	now := time.Now()
	server.SetLastHeartbeat(now)
	server.UpdateStats(WithReplicaCnt(12), WithLeaderCnt(3))

	got := suite.manager.Get(1)
	suite.Equal(now.UnixNano(), got.LastHeartbeat().UnixNano())
	suite.Equal(12, got.ReplicaCnt())
	suite.Equal(3, got.LeaderCnt())
}

func TestServerManager(t *testing.T) {
	suite.Run(t, new(ServerManagerSuite))
}
