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
	"testing"

	"github.com/stretchr/testify/suite"
)

type CatalogViewTestSuite struct {
	suite.Suite
	view catalogView
}

func (suite *CatalogViewTestSuite) SetupTest() {
	suite.view = newCatalogView()
}

func (suite *CatalogViewTestSuite) TestTableRecord() {
	suite.view.apply("tables/100", []byte(`{"id":100,"name":"orders","policy":{"replication_factor":3}}`))

	table := suite.view.tables[100]
	suite.Require().NotNil(table)
	suite.Equal("orders", table.Name)
	suite.EqualValues(3, table.Policy.ReplicationFactor)
}

func (suite *CatalogViewTestSuite) TestTabletRecord() {
	suite.view.apply("tablets/100/7", []byte(`{"id":7,"table_id":100,"hosts":[1,2,3],"leader":2,"starting":true}`))

	suite.Require().Len(suite.view.tablets[100], 1)
	tablet := suite.view.tablets[100][0]
	suite.EqualValues(7, tablet.ID)
	suite.EqualValues(100, tablet.TableID)
	suite.True(tablet.Hosts.Contain(1, 2, 3))
	suite.EqualValues(2, tablet.Leader)
	suite.True(tablet.Starting)
}

func (suite *CatalogViewTestSuite) TestPolicyBlacklistAffinity() {
	suite.view.apply("policy", []byte(`{"replication_factor":3,"blocks":[{"zone":"zone-b","min_replicas":1}]}`))
	suite.view.apply("blacklist/4", nil)
	suite.view.apply("affinity/zone-b", nil)

	suite.EqualValues(3, suite.view.policy.ReplicationFactor)
	suite.Require().Len(suite.view.policy.Blocks, 1)
	suite.Equal("zone-b", suite.view.policy.Blocks[0].Zone)
	suite.True(suite.view.blacklist.Contain(4))
	suite.True(suite.view.affinity.Contain("zone-b"))
}

// One unreadable record must not block the rest of the refresh.
func (suite *CatalogViewTestSuite) TestMalformedRecordsSkipped() {
	suite.view.apply("tables/100", []byte(`{"id":100,"name":"orders"}`))
	suite.view.apply("tables/101", []byte(`{not json`))
	suite.view.apply("tablets/100/7", []byte(`{"id":7,`))
	suite.view.apply("blacklist/not-a-number", nil)
	suite.view.apply("policy", []byte(`[]`))

	suite.Len(suite.view.tables, 1)
	suite.Empty(suite.view.tablets)
	suite.Zero(suite.view.blacklist.Len())
	suite.Zero(suite.view.policy.ReplicationFactor)
}

func (suite *CatalogViewTestSuite) TestUnknownKeysIgnored() {
	suite.view.apply("leases/3", []byte(`{}`))
	suite.view.apply("tablesmith/1", []byte(`{"id":1}`))

	suite.Empty(suite.view.tables)
	suite.Empty(suite.view.tablets)
}

func TestCatalogView(t *testing.T) {
	suite.Run(t, new(CatalogViewTestSuite))
}
