package depbus

import "github.com/veesix-networks/fdbd/pkg/models/fdb"

// Registry groups the dependency publishers shared by the bridge and FDB
// managers. It is constructed once and injected.
type Registry struct {
	BridgePorts *Publisher[fdb.PortDescriptor, fdb.BridgePort]
	FdbEntries  *Publisher[fdb.Key, fdb.HardwareKey]
}

func NewRegistry() *Registry {
	return &Registry{
		BridgePorts: NewPublisher[fdb.PortDescriptor, fdb.BridgePort]("bridge-port"),
		FdbEntries:  NewPublisher[fdb.Key, fdb.HardwareKey]("fdb-entry"),
	}
}
