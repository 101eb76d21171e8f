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

package balance

import (
	"github.com/blang/semver/v4"
	"github.com/samber/lo"

	"github.com/tessera-db/tessera/internal/meta"
	"github.com/tessera-db/tessera/internal/session"
	"github.com/tessera-db/tessera/internal/task"
	"github.com/tessera-db/tessera/pkg/util/merr"
	"github.com/tessera-db/tessera/pkg/util/paramtable"
)

// Condition classifies one tablet against its placement requirements.
// Higher values are more urgent; when a tablet exhibits several
// conditions only the most urgent one is acted on per run.
type Condition int32

const (
	ConditionBalanced Condition = iota
	ConditionLeaderMisplaced
	ConditionOverReplicated
	ConditionUnderReplicated
	ConditionPlacementViolating
	ConditionBlacklistViolating
)

var conditionName = map[Condition]string{
	ConditionBalanced:           "balanced",
	ConditionLeaderMisplaced:    "leader-misplaced",
	ConditionOverReplicated:     "over-replicated",
	ConditionUnderReplicated:    "under-replicated",
	ConditionPlacementViolating: "placement-violating",
	ConditionBlacklistViolating: "blacklist-violating",
}

func (c Condition) String() string {
	return conditionName[c]
}

// ActionKind returns the kind of corrective action the condition calls for.
func (c Condition) ActionKind() task.ActionType {
	switch c {
	case ConditionBlacklistViolating, ConditionOverReplicated:
		return task.ActionTypeRemove
	case ConditionPlacementViolating, ConditionUnderReplicated:
		return task.ActionTypeAdd
	case ConditionLeaderMisplaced:
		return task.ActionTypeStepdown
	}
	return 0
}

// Plan is one candidate corrective action for one tablet.
type Plan struct {
	Tablet    *meta.TabletMeta
	Condition Condition
	Action    *task.ReplicaAction
}

// Evaluator is the pure decision function of the balancer: given the run
// snapshot it classifies a single tablet and proposes the one corrective
// action for its most urgent condition. It holds no mutable state, so
// classification may run concurrently across tablets.
type Evaluator struct {
	tieBreak   string
	minVersion semver.Version
}

func NewEvaluator() *Evaluator {
	cfg := &paramtable.Get().BalancerCfg
	minVersion, err := semver.Parse(cfg.MinServerVersion.GetValue())
	if err != nil {
		minVersion = semver.Version{}
	}
	return &Evaluator{
		tieBreak:   cfg.TieBreakPolicy.GetValue(),
		minVersion: minVersion,
	}
}

// Classify returns the tablet's most urgent condition.
func (e *Evaluator) Classify(snap *Snapshot, tablet *meta.TabletMeta) Condition {
	policy := snap.PolicyFor(tablet.TableID)
	liveHosts := snap.LiveHosts(tablet)

	switch {
	case len(snap.BlacklistedHosts(tablet)) > 0:
		return ConditionBlacklistViolating
	case len(e.missingBlocks(snap, tablet, policy)) > 0:
		return ConditionPlacementViolating
	case len(liveHosts) < int(policy.ReplicationFactor):
		return ConditionUnderReplicated
	case len(liveHosts) > int(policy.ReplicationFactor):
		return ConditionOverReplicated
	case e.leaderMisplaced(snap, tablet):
		return ConditionLeaderMisplaced
	}
	return ConditionBalanced
}

// Evaluate classifies the tablet and proposes its corrective action.
// A nil plan with nil error means there is nothing to do this run:
// the tablet is balanced, or a task of the required kind is already in
// flight. A non-nil error marks the tablet as skipped (soft anomaly or
// no eligible candidate), to be retried next run.
func (e *Evaluator) Evaluate(snap *Snapshot, tablet *meta.TabletMeta) (*Plan, error) {
	if tablet.ReplicaCount() > 0 && len(snap.LiveHosts(tablet)) == 0 {
		// every recorded replica references a server outside the live
		// set; acting on such a tablet could drop its last copy
		return nil, merr.WrapErrTabletOrphaned(tablet.ID, anyHost(tablet))
	}

	condition := e.Classify(snap, tablet)
	if condition == ConditionBalanced {
		return nil, nil
	}
	if snap.HasPending(tablet.ID, condition.ActionKind()) {
		return nil, nil
	}

	var (
		action *task.ReplicaAction
		err    error
	)
	switch condition.ActionKind() {
	case task.ActionTypeAdd:
		action, err = e.proposeAdd(snap, tablet)
	case task.ActionTypeRemove:
		action, err = e.proposeRemove(snap, tablet)
	case task.ActionTypeStepdown:
		action, err = e.proposeStepdown(snap, tablet)
	}
	if err != nil {
		return nil, err
	}

	return &Plan{
		Tablet:    tablet,
		Condition: condition,
		Action:    action,
	}, nil
}

// proposeAdd picks the least-loaded live server that does not host the
// tablet yet. Ties break by the configured policy: zone-spread prefers
// servers in zones with unmet placement minimums, then the lowest ID.
func (e *Evaluator) proposeAdd(snap *Snapshot, tablet *meta.TabletMeta) (*task.ReplicaAction, error) {
	policy := snap.PolicyFor(tablet.TableID)
	missing := lo.SliceToMap(e.missingBlocks(snap, tablet, policy), func(block meta.PlacementBlock) (string, struct{}) {
		return block.Zone, struct{}{}
	})

	queue := newPriorityQueue()
	for _, load := range snap.Servers() {
		server := load.Server
		if !e.eligibleAddTarget(snap, tablet, server) {
			continue
		}
		rank := 0
		if e.tieBreak == paramtable.TieBreakZoneSpread && len(missing) > 0 {
			if _, ok := missing[server.Zone()]; !ok {
				rank = 1
			}
		}
		queue.push(&serverItem{
			serverID: server.ID(),
			priority: load.ReplicaCount,
			rank:     rank,
		})
	}
	if queue.len() == 0 {
		return nil, merr.WrapErrNoCandidateServer(tablet.ID, "no live server can take a replica")
	}

	target := queue.pop()
	return task.NewReplicaAction(tablet.TableID, tablet.ID, target.serverID, task.ActionTypeAdd), nil
}

func (e *Evaluator) eligibleAddTarget(snap *Snapshot, tablet *meta.TabletMeta, server *session.ServerInfo) bool {
	return !tablet.HostedOn(server.ID()) &&
		!snap.Blacklist().Contain(server.ID()) &&
		!server.IsStoppingState() &&
		server.Version().GTE(e.minVersion)
}

// proposeRemove drains blacklisted replicas first; otherwise it sheds
// load from the most-loaded live host, sparing the leader unless the
// leader is the only host left.
func (e *Evaluator) proposeRemove(snap *Snapshot, tablet *meta.TabletMeta) (*task.ReplicaAction, error) {
	candidates := snap.BlacklistedHosts(tablet)
	if len(candidates) == 0 {
		candidates = lo.Filter(snap.LiveHosts(tablet), func(host UniqueID, _ int) bool {
			return host != tablet.Leader
		})
		if len(candidates) == 0 {
			// the leader is the only live replica
			candidates = snap.LiveHosts(tablet)
		}
	}
	if len(candidates) == 0 {
		return nil, merr.WrapErrNoCandidateServer(tablet.ID, "no removable replica")
	}

	queue := newPriorityQueue()
	for _, host := range candidates {
		load := 0
		if serverLoad := snap.ServerLoad(host); serverLoad != nil {
			load = serverLoad.ReplicaCount
		}
		// negated so the most-loaded host pops first
		queue.push(&serverItem{
			serverID: host,
			priority: -load,
		})
	}

	source := queue.pop()
	return task.NewReplicaAction(tablet.TableID, tablet.ID, source.serverID, task.ActionTypeRemove), nil
}

// proposeStepdown moves leadership to the least-leader-loaded live,
// non-blacklisted replica inside an affinity zone.
func (e *Evaluator) proposeStepdown(snap *Snapshot, tablet *meta.TabletMeta) (*task.ReplicaAction, error) {
	queue := newPriorityQueue()
	for _, host := range snap.LiveHosts(tablet) {
		load := snap.ServerLoad(host)
		server := load.Server
		if host == tablet.Leader ||
			snap.Blacklist().Contain(host) ||
			server.IsStoppingState() ||
			!snap.AffinityZones().Contain(server.Zone()) {
			continue
		}
		queue.push(&serverItem{
			serverID: host,
			priority: load.LeaderCount,
		})
	}
	if queue.len() == 0 {
		return nil, merr.WrapErrNoCandidateServer(tablet.ID, "no replica in an affinity zone")
	}

	target := queue.pop()
	return task.NewReplicaAction(tablet.TableID, tablet.ID, target.serverID, task.ActionTypeStepdown), nil
}

// missingBlocks returns the placement blocks whose live replica count is
// below the block minimum.
func (e *Evaluator) missingBlocks(snap *Snapshot, tablet *meta.TabletMeta, policy meta.PlacementPolicy) []meta.PlacementBlock {
	if len(policy.Blocks) == 0 {
		return nil
	}

	perZone := make(map[string]int32)
	for _, host := range snap.LiveHosts(tablet) {
		perZone[snap.ServerLoad(host).Server.Zone()]++
	}
	return lo.Filter(policy.Blocks, func(block meta.PlacementBlock, _ int) bool {
		return perZone[block.Zone] < block.MinReplicas
	})
}

// leaderMisplaced reports whether the leader sits outside every affinity
// zone while some live, non-blacklisted replica is inside one.
func (e *Evaluator) leaderMisplaced(snap *Snapshot, tablet *meta.TabletMeta) bool {
	affinity := snap.AffinityZones()
	if affinity.Len() == 0 || tablet.Leader == meta.NilServer {
		return false
	}
	leader := snap.ServerLoad(tablet.Leader)
	if leader == nil {
		// leader outside the live set is an availability problem the
		// leader election handles, not a placement preference
		return false
	}
	if affinity.Contain(leader.Server.Zone()) {
		return false
	}

	for _, host := range snap.LiveHosts(tablet) {
		if host == tablet.Leader || snap.Blacklist().Contain(host) {
			continue
		}
		if affinity.Contain(snap.ServerLoad(host).Server.Zone()) {
			return true
		}
	}
	return false
}

func anyHost(tablet *meta.TabletMeta) UniqueID {
	for host := range tablet.Hosts {
		return host
	}
	return meta.NilServer
}
