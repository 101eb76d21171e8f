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
	"sync"
	"time"

	"github.com/blang/semver/v4"
	"go.uber.org/atomic"

	"github.com/tessera-db/tessera/pkg/metrics"
)

// Manager is the registry of storage servers known to the control plane,
// fed by the heartbeat subsystem.
type Manager interface {
	Add(server *ServerInfo)
	Stopping(serverID int64)
	Remove(serverID int64)
	Get(serverID int64) *ServerInfo
	GetAll() []*ServerInfo
}

type ServerManager struct {
	mu      sync.RWMutex
	servers map[int64]*ServerInfo
}

func NewServerManager() *ServerManager {
	return &ServerManager{
		servers: make(map[int64]*ServerInfo),
	}
}

func (m *ServerManager) Add(server *ServerInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[server.ID()] = server
	metrics.BalancerLiveServers.Set(float64(len(m.servers)))
}

func (m *ServerManager) Remove(serverID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.servers, serverID)
	metrics.BalancerLiveServers.Set(float64(len(m.servers)))
}

// Stopping marks a server as draining, it stays in the registry so its
// replicas remain visible but it no longer receives new ones.
func (m *ServerManager) Stopping(serverID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if server, ok := m.servers[serverID]; ok {
		server.SetState(ServerStateStopping)
	}
}

func (m *ServerManager) Get(serverID int64) *ServerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.servers[serverID]
}

func (m *ServerManager) GetAll() []*ServerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ret := make([]*ServerInfo, 0, len(m.servers))
	for _, server := range m.servers {
		ret = append(ret, server)
	}
	return ret
}

type State int

const (
	ServerStateNormal State = iota
	ServerStateStopping
)

var stateNameMap = map[State]string{
	ServerStateNormal:   "active",
	ServerStateStopping: "stopping",
}

func (s State) String() string {
	return stateNameMap[s]
}

// ImmutableServerInfo holds the identity fields of a server,
// fixed for the lifetime of its session.
type ImmutableServerInfo struct {
	ServerID int64
	Address  string
	Zone     string
	Version  semver.Version
}

// ServerInfo is one storage server as seen by the control plane.
type ServerInfo struct {
	mu            sync.RWMutex
	immutableInfo ImmutableServerInfo
	state         State
	lastHeartbeat *atomic.Int64

	replicaCnt int
	leaderCnt  int
}

func NewServerInfo(info ImmutableServerInfo) *ServerInfo {
	return &ServerInfo{
		immutableInfo: info,
		lastHeartbeat: atomic.NewInt64(0),
	}
}

func (s *ServerInfo) ID() int64 {
	return s.immutableInfo.ServerID
}

func (s *ServerInfo) Addr() string {
	return s.immutableInfo.Address
}

func (s *ServerInfo) Zone() string {
	return s.immutableInfo.Zone
}

func (s *ServerInfo) Version() semver.Version {
	return s.immutableInfo.Version
}

func (s *ServerInfo) SetLastHeartbeat(t time.Time) {
	s.lastHeartbeat.Store(t.UnixNano())
}

func (s *ServerInfo) LastHeartbeat() time.Time {
	return time.Unix(0, s.lastHeartbeat.Load())
}

func (s *ServerInfo) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *ServerInfo) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *ServerInfo) IsStoppingState() bool {
	return s.GetState() == ServerStateStopping
}

// ReplicaCnt returns the replica count last reported by heartbeat.
// The balancer does not use it for decisions, it rebuilds counts from the
// catalog snapshot each run; this is for ops visibility only.
func (s *ServerInfo) ReplicaCnt() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.replicaCnt
}

func (s *ServerInfo) LeaderCnt() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderCnt
}

func (s *ServerInfo) UpdateStats(opts ...StatsOption) {
	s.mu.Lock()
	for _, opt := range opts {
		opt(s)
	}
	s.mu.Unlock()
}

type StatsOption func(*ServerInfo)

func WithReplicaCnt(cnt int) StatsOption {
	return func(s *ServerInfo) {
		s.replicaCnt = cnt
	}
}

func WithLeaderCnt(cnt int) StatsOption {
	return func(s *ServerInfo) {
		s.leaderCnt = cnt
	}
}
