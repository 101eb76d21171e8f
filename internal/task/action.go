package task

import (
	"fmt"

	"github.com/tessera-db/tessera/pkg/util/typeutil"
)

type UniqueID = typeutil.UniqueID

type ActionType int32

const (
	ActionTypeAdd ActionType = iota + 1
	ActionTypeRemove
	ActionTypeStepdown
)

var actionTypeName = map[ActionType]string{
	ActionTypeAdd:      "add",
	ActionTypeRemove:   "remove",
	ActionTypeStepdown: "stepdown",
}

func (t ActionType) String() string {
	return actionTypeName[t]
}

// ReplicaAction is one corrective action the balancer wants applied to a
// tablet. The meaning of Server depends on the type: the target of an
// add, the source of a remove, or the replica leadership should move to
// for a stepdown.
type ReplicaAction struct {
	tabletID UniqueID
	tableID  UniqueID
	serverID UniqueID
	typ      ActionType
}

func NewReplicaAction(tableID, tabletID, serverID UniqueID, typ ActionType) *ReplicaAction {
	return &ReplicaAction{
		tabletID: tabletID,
		tableID:  tableID,
		serverID: serverID,
		typ:      typ,
	}
}

func (a *ReplicaAction) TabletID() UniqueID {
	return a.tabletID
}

func (a *ReplicaAction) TableID() UniqueID {
	return a.tableID
}

func (a *ReplicaAction) Server() UniqueID {
	return a.serverID
}

func (a *ReplicaAction) Type() ActionType {
	return a.typ
}

func (a *ReplicaAction) String() string {
	return fmt.Sprintf("%s(tablet=%d, server=%d)", a.typ, a.tabletID, a.serverID)
}
