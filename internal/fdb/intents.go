package fdb

import (
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// AddMac adds a learned or configured MAC. The owning interface is the one
// the port belongs to.
func (m *Manager) AddMac(e fdb.MacEntry) error {
	intf, ok := m.env.topo.InterfaceOfPort(e.Port)
	if !ok {
		return fmt.Errorf("add mac %s on %s: %w", e.MAC, e.Port, ErrUnknownInterface)
	}
	return m.AddEntry(e.Port, intf, e.MAC, e.Type, e.Metadata())
}

// RemoveMac removes a MAC. If the port no longer maps to an interface, the
// port index is used to find the entry.
func (m *Manager) RemoveMac(e fdb.MacEntry) error {
	intf, ok := m.interfaceForMac(e.Port, e.MAC)
	if !ok {
		m.logger.Warn("Attempted to remove MAC with no entry on port", "mac", e.MAC.String(), "port", e.Port.String())
		return nil
	}
	return m.RemoveEntry(intf, e.MAC)
}

// ChangeMac applies a change between two intents for the same MAC. Each
// side resolves its interface from its own port; a move to a port of another
// interface removes the old entry and adds a new one under the new key.
func (m *Manager) ChangeMac(oldEntry, newEntry fdb.MacEntry) error {
	if oldEntry.MAC != newEntry.MAC {
		return fmt.Errorf("change mac %s -> %s: %w", oldEntry.MAC, newEntry.MAC, ErrMacMismatch)
	}

	oldIntf, ok := m.interfaceForMac(oldEntry.Port, oldEntry.MAC)
	if !ok {
		return fmt.Errorf("change mac %s on %s: %w", oldEntry.MAC, oldEntry.Port, ErrMissingIntent)
	}
	newIntf, ok := m.env.topo.InterfaceOfPort(newEntry.Port)
	if !ok {
		return fmt.Errorf("change mac %s to %s: %w", newEntry.MAC, newEntry.Port, ErrUnknownInterface)
	}

	if oldIntf == newIntf {
		return m.ChangeEntry(oldIntf, oldEntry, newEntry)
	}

	if _, ok := m.entries[fdb.Key{Interface: oldIntf, MAC: oldEntry.MAC}]; !ok {
		return fmt.Errorf("change mac %s on %s: %w", oldEntry.MAC, oldEntry.Port, ErrMissingIntent)
	}
	m.logger.Debug("Moving MAC across interfaces", "mac", oldEntry.MAC.String(),
		"from", oldIntf, "to", newIntf, "port", newEntry.Port.String())
	if err := m.RemoveEntry(oldIntf, oldEntry.MAC); err != nil {
		return err
	}
	return m.AddEntry(newEntry.Port, newIntf, newEntry.MAC, newEntry.Type, newEntry.Metadata())
}

func (m *Manager) interfaceForMac(port fdb.PortDescriptor, mac fdb.MacAddress) (fdb.InterfaceID, bool) {
	if intf, ok := m.env.topo.InterfaceOfPort(port); ok {
		return intf, true
	}
	for key := range m.portToKeys[port] {
		if key.MAC == mac {
			return key.Interface, true
		}
	}
	return 0, false
}
