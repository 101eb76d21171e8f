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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComponentParam(t *testing.T) {
	Init()
	params := Get()

	t.Run("balancer defaults", func(t *testing.T) {
		cfg := &params.BalancerCfg
		assert.Equal(t, 3*time.Second, cfg.CheckInterval.GetAsDuration(time.Millisecond))
		assert.Equal(t, 8, cfg.MaxConcurrentAdds.GetAsInt())
		assert.Equal(t, 8, cfg.MaxConcurrentRemovals.GetAsInt())
		assert.True(t, cfg.AllowLimitStartingTablets.GetAsBool())
		assert.True(t, cfg.AllowLimitOverReplicatedTablets.GetAsBool())
		assert.Equal(t, TieBreakZoneSpread, cfg.TieBreakPolicy.GetValue())
		assert.Equal(t, "1.0.0", cfg.MinServerVersion.GetValue())
		assert.Equal(t, 5*time.Minute, cfg.PendingTaskTimeout.GetAsDuration(time.Millisecond))
	})

	t.Run("catalog defaults", func(t *testing.T) {
		cfg := &params.CatalogCfg
		assert.Equal(t, "tessera/meta", cfg.MetaRootPath.GetValue())
		assert.Equal(t, 3*time.Second, cfg.RequestTimeout.GetAsDuration(time.Millisecond))
	})

	t.Run("save and reset", func(t *testing.T) {
		params.Save("balancer.maxConcurrentAdds", "2")
		assert.Equal(t, 2, params.BalancerCfg.MaxConcurrentAdds.GetAsInt())

		params.Reset("balancer.maxConcurrentAdds")
		assert.Equal(t, 8, params.BalancerCfg.MaxConcurrentAdds.GetAsInt())
	})

	t.Run("keys are case insensitive", func(t *testing.T) {
		params.Save("Balancer.TieBreakPolicy", TieBreakLowestID)
		assert.Equal(t, TieBreakLowestID, params.BalancerCfg.TieBreakPolicy.GetValue())
		params.Reset("balancer.tieBreakPolicy")
	})
}
