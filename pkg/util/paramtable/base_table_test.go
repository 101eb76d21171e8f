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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseTable(t *testing.T) {
	bt := NewBaseTable()

	t.Run("get with default", func(t *testing.T) {
		assert.Equal(t, "", bt.Get("no.such.key"))
		assert.Equal(t, "fallback", bt.GetWithDefault("no.such.key", "fallback"))
	})

	t.Run("save overrides and reset restores", func(t *testing.T) {
		bt.Save("balancer.checkInterval", "1000")
		assert.Equal(t, "1000", bt.Get("balancer.checkInterval"))
		assert.Equal(t, "1000", bt.Get("Balancer.CheckInterval"))

		bt.Reset("balancer.checkInterval")
		assert.Equal(t, "", bt.Get("balancer.checkInterval"))
	})

	t.Run("load yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tessera.yaml")
		content := []byte(`
balancer:
  maxConcurrentAdds: 4
  pendingTaskTimeout: 60000
catalog:
  metaRootPath: custom/meta
`)
		require.NoError(t, os.WriteFile(path, content, 0o600))
		require.NoError(t, bt.LoadYaml(path))

		item := ParamItem{Key: "balancer.maxConcurrentAdds", DefaultValue: "8"}
		item.Init(bt)
		assert.Equal(t, 4, item.GetAsInt())

		timeout := ParamItem{Key: "balancer.pendingTaskTimeout", DefaultValue: "300000"}
		timeout.Init(bt)
		assert.Equal(t, time.Minute, timeout.GetAsDuration(time.Millisecond))

		assert.Equal(t, "custom/meta", bt.Get("catalog.metaRootPath"))

		// explicit Save still wins over the file value
		bt.Save("balancer.maxConcurrentAdds", "2")
		assert.Equal(t, 2, item.GetAsInt())
	})

	t.Run("load yaml missing file", func(t *testing.T) {
		assert.Error(t, bt.LoadYaml(filepath.Join(t.TempDir(), "absent.yaml")))
	})
}
