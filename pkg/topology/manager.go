package topology

import (
	"sort"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// Manager resolves ports, aggregate ports and router interfaces to their
// dataplane handles and back.
type Manager struct {
	mu sync.RWMutex

	ports       map[fdb.PortID]*Port
	portsByName map[string]*Port
	aggregates  map[fdb.AggregatePortID]*AggregatePort
	aggByName   map[string]*AggregatePort
	byHandle    map[fdb.PortHandle]fdb.PortDescriptor
	interfaces  map[fdb.InterfaceID]*RouterInterface
	rifVlan     map[fdb.RouterInterfaceHandle]fdb.VlanID
	portToIntf  map[fdb.PortDescriptor]fdb.InterfaceID
}

func New() *Manager {
	return &Manager{
		ports:       make(map[fdb.PortID]*Port),
		portsByName: make(map[string]*Port),
		aggregates:  make(map[fdb.AggregatePortID]*AggregatePort),
		aggByName:   make(map[string]*AggregatePort),
		byHandle:    make(map[fdb.PortHandle]fdb.PortDescriptor),
		interfaces:  make(map[fdb.InterfaceID]*RouterInterface),
		rifVlan:     make(map[fdb.RouterInterfaceHandle]fdb.VlanID),
		portToIntf:  make(map[fdb.PortDescriptor]fdb.InterfaceID),
	}
}

func (m *Manager) AddPort(p *Port) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.ports[p.ID]; ok {
		m.removePortLocked(old)
	}
	m.ports[p.ID] = p
	if p.Name != "" {
		m.portsByName[p.Name] = p
	}
	m.byHandle[p.Handle] = p.Descriptor()
}

func (m *Manager) RemovePort(id fdb.PortID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.ports[id]; ok {
		m.removePortLocked(p)
	}
}

func (m *Manager) removePortLocked(p *Port) {
	delete(m.ports, p.ID)
	if p.Name != "" {
		delete(m.portsByName, p.Name)
	}
	if m.byHandle[p.Handle] == p.Descriptor() {
		delete(m.byHandle, p.Handle)
	}
}

func (m *Manager) Port(id fdb.PortID) *Port {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ports[id]
}

func (m *Manager) PortByName(name string) *Port {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.portsByName[name]
}

// ResolveName maps a port or aggregate port name to its descriptor.
// Physical ports win over aggregates of the same name.
func (m *Manager) ResolveName(name string) (fdb.PortDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.portsByName[name]; ok {
		return p.Descriptor(), true
	}
	if a, ok := m.aggByName[name]; ok {
		return a.Descriptor(), true
	}
	return fdb.PortDescriptor{}, false
}

// SetLinkState records the operational state of a named port or aggregate
// port and returns its descriptor. It reports false if the name is unknown.
func (m *Manager) SetLinkState(name string, up bool) (fdb.PortDescriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.portsByName[name]; ok {
		p.LinkUp = up
		return p.Descriptor(), true
	}
	if a, ok := m.aggByName[name]; ok {
		a.LinkUp = up
		return a.Descriptor(), true
	}
	return fdb.PortDescriptor{}, false
}

func (m *Manager) AddAggregatePort(a *AggregatePort) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.aggregates[a.ID]; ok {
		if m.byHandle[old.Handle] == old.Descriptor() {
			delete(m.byHandle, old.Handle)
		}
		if m.aggByName[old.Name] == old {
			delete(m.aggByName, old.Name)
		}
	}
	m.aggregates[a.ID] = a
	if a.Name != "" {
		m.aggByName[a.Name] = a
	}
	m.byHandle[a.Handle] = a.Descriptor()
}

func (m *Manager) RemoveAggregatePort(id fdb.AggregatePortID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.aggregates[id]; ok {
		delete(m.aggregates, id)
		if m.byHandle[a.Handle] == a.Descriptor() {
			delete(m.byHandle, a.Handle)
		}
		if m.aggByName[a.Name] == a {
			delete(m.aggByName, a.Name)
		}
	}
}

func (m *Manager) AggregatePort(id fdb.AggregatePortID) *AggregatePort {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aggregates[id]
}

func (m *Manager) AddInterface(ri *RouterInterface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.interfaces[ri.ID]; ok {
		m.removeInterfaceLocked(old)
	}
	m.interfaces[ri.ID] = ri
	m.rifVlan[ri.Handle] = ri.VLAN
	for _, p := range ri.Ports {
		m.portToIntf[p] = ri.ID
	}
}

func (m *Manager) RemoveInterface(id fdb.InterfaceID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ri, ok := m.interfaces[id]; ok {
		m.removeInterfaceLocked(ri)
	}
}

func (m *Manager) removeInterfaceLocked(ri *RouterInterface) {
	delete(m.interfaces, ri.ID)
	delete(m.rifVlan, ri.Handle)
	for _, p := range ri.Ports {
		if m.portToIntf[p] == ri.ID {
			delete(m.portToIntf, p)
		}
	}
}

func (m *Manager) Interface(id fdb.InterfaceID) *RouterInterface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interfaces[id]
}

func (m *Manager) PortHandle(desc fdb.PortDescriptor) (fdb.PortHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if desc.IsPhysicalPort() {
		if p, ok := m.ports[desc.PhysicalPortID()]; ok {
			return p.Handle, true
		}
		return 0, false
	}
	if a, ok := m.aggregates[desc.AggregatePortID()]; ok {
		return a.Handle, true
	}
	return 0, false
}

func (m *Manager) RouterInterfaceHandle(id fdb.InterfaceID) (fdb.RouterInterfaceHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if ri, ok := m.interfaces[id]; ok {
		return ri.Handle, true
	}
	return 0, false
}

func (m *Manager) RouterInterfaceVlan(h fdb.RouterInterfaceHandle) (fdb.VlanID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vlan, ok := m.rifVlan[h]
	return vlan, ok
}

func (m *Manager) InterfaceOfPort(desc fdb.PortDescriptor) (fdb.InterfaceID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.portToIntf[desc]
	return id, ok
}

func (m *Manager) PortOfHandle(h fdb.PortHandle) (fdb.PortID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	desc, ok := m.byHandle[h]
	if !ok || !desc.IsPhysicalPort() {
		return 0, false
	}
	return desc.PhysicalPortID(), true
}

func (m *Manager) AggregatePortOfHandle(h fdb.PortHandle) (fdb.AggregatePortID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	desc, ok := m.byHandle[h]
	if !ok || desc.IsPhysicalPort() {
		return 0, false
	}
	return desc.AggregatePortID(), true
}

func (m *Manager) Ports() []*Port {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Port, 0, len(m.ports))
	for _, p := range m.ports {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Manager) AggregatePorts() []*AggregatePort {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*AggregatePort, 0, len(m.aggregates))
	for _, a := range m.aggregates {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Manager) Interfaces() []*RouterInterface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*RouterInterface, 0, len(m.interfaces))
	for _, ri := range m.interfaces {
		result = append(result, ri)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
