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
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// BaseTable is the flat key-value view over the process configuration.
// Keys are case-insensitive dotted paths (e.g. "balancer.maxConcurrentAdds").
// Values resolve, in order, from explicit Save calls, the loaded config file,
// and the ParamItem default.
type BaseTable struct {
	mu sync.RWMutex
	v  *viper.Viper
}

func NewBaseTable() *BaseTable {
	return &BaseTable{
		v: viper.New(),
	}
}

// LoadYaml merges the given yaml config file into the table.
func (bt *BaseTable) LoadYaml(path string) error {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.v.SetConfigFile(path)
	return bt.v.MergeInConfig()
}

func (bt *BaseTable) Get(key string) string {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return bt.v.GetString(strings.ToLower(key))
}

func (bt *BaseTable) GetWithDefault(key, defaultValue string) string {
	if v := bt.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// Save overrides the value of key, mainly for tests.
func (bt *BaseTable) Save(key, value string) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.v.Set(strings.ToLower(key), value)
}

// Reset drops an override set via Save, restoring the item default.
func (bt *BaseTable) Reset(key string) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.v.Set(strings.ToLower(key), nil)
}

// ParamItem is one named configuration entry with a default.
// All reads go through the owning BaseTable, so a Save in tests is
// observed by the next Get.
type ParamItem struct {
	Key          string
	DefaultValue string
	Doc          string

	table *BaseTable
}

func (pi *ParamItem) Init(bt *BaseTable) {
	pi.table = bt
}

func (pi *ParamItem) GetValue() string {
	return pi.table.GetWithDefault(pi.Key, pi.DefaultValue)
}

func (pi *ParamItem) GetAsInt() int {
	return cast.ToInt(pi.GetValue())
}

func (pi *ParamItem) GetAsBool() bool {
	return cast.ToBool(pi.GetValue())
}

// GetAsDuration interprets the value as a count of unit.
func (pi *ParamItem) GetAsDuration(unit time.Duration) time.Duration {
	return time.Duration(cast.ToInt64(pi.GetValue())) * unit
}
