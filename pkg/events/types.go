package events

import "github.com/veesix-networks/fdbd/pkg/models/fdb"

type MacIntentOp string

const (
	MacIntentAdd    MacIntentOp = "add"
	MacIntentRemove MacIntentOp = "remove"
	MacIntentChange MacIntentOp = "change"
)

// MacIntentEvent is published by the MAC learning subsystem. New is set for
// add and change, Old for remove and change.
type MacIntentEvent struct {
	Op  MacIntentOp
	Old *fdb.MacEntry
	New *fdb.MacEntry
}

type LinkStateEvent struct {
	Port   fdb.PortDescriptor
	Name   string
	LinkUp bool
}

type FdbEntryState string

const (
	FdbEntryBound   FdbEntryState = "bound"
	FdbEntryPending FdbEntryState = "pending"
)

type FdbEntryEvent struct {
	Key   fdb.Key
	Port  fdb.PortDescriptor
	VLAN  fdb.VlanID
	State FdbEntryState
}
