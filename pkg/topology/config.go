package topology

import (
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// Apply loads the ports, aggregate ports and router interfaces of cfg.
// Links start down until the link monitor reports otherwise.
func (m *Manager) Apply(cfg *config.Config) error {
	for _, p := range cfg.Ports {
		m.AddPort(&Port{
			ID:     fdb.PortID(p.ID),
			Name:   p.Name,
			Handle: fdb.PortHandle(p.Handle),
		})
	}

	for _, a := range cfg.AggregatePorts {
		members := make([]fdb.PortID, 0, len(a.Members))
		for _, name := range a.Members {
			p := m.PortByName(name)
			if p == nil {
				return fmt.Errorf("aggregate port %s: unknown member %s", a.Name, name)
			}
			members = append(members, p.ID)
		}
		m.AddAggregatePort(&AggregatePort{
			ID:      fdb.AggregatePortID(a.ID),
			Name:    a.Name,
			Handle:  fdb.PortHandle(a.Handle),
			Members: members,
		})
	}

	for _, intf := range cfg.Interfaces {
		ports := make([]fdb.PortDescriptor, 0, len(intf.Ports))
		for _, name := range intf.Ports {
			desc, err := cfg.ResolvePort(name)
			if err != nil {
				return fmt.Errorf("interface %d: %w", intf.ID, err)
			}
			ports = append(ports, desc)
		}
		m.AddInterface(&RouterInterface{
			ID:     fdb.InterfaceID(intf.ID),
			Handle: fdb.RouterInterfaceHandle(intf.RouterInterface),
			VLAN:   fdb.VlanID(intf.VLAN),
			Ports:  ports,
		})
	}

	return nil
}

// BridgedPorts returns every port and aggregate port that is a member of a
// router interface, in interface order.
func (m *Manager) BridgedPorts() []fdb.PortDescriptor {
	seen := make(map[fdb.PortDescriptor]bool)
	var out []fdb.PortDescriptor
	for _, ri := range m.Interfaces() {
		for _, p := range ri.Ports {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
