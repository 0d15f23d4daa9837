package topology

import "github.com/veesix-networks/fdbd/pkg/models/fdb"

type Port struct {
	ID     fdb.PortID
	Name   string
	Handle fdb.PortHandle
	LinkUp bool
}

func (p *Port) Descriptor() fdb.PortDescriptor {
	return fdb.PhysicalPort(p.ID)
}

type AggregatePort struct {
	ID      fdb.AggregatePortID
	Name    string
	Handle  fdb.PortHandle
	Members []fdb.PortID
	LinkUp  bool
}

func (a *AggregatePort) Descriptor() fdb.PortDescriptor {
	return fdb.AggregatePort(a.ID)
}

// RouterInterface is an L3 interface with its own bridge domain. The VLAN is
// 1:1 with the interface; Ports are the untagged members that map back to it.
type RouterInterface struct {
	ID     fdb.InterfaceID
	Handle fdb.RouterInterfaceHandle
	VLAN   fdb.VlanID
	Ports  []fdb.PortDescriptor
}
