package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

const (
	bridgePortIDMin = fdb.BridgePortID(1)
	bridgePortIDMax = fdb.BridgePortID(4095)
)

type PortResolver interface {
	PortHandle(desc fdb.PortDescriptor) (fdb.PortHandle, bool)
}

// Manager owns bridge ports and announces them on the dependency bus. Add
// and Remove dispatch to dependents synchronously, so they must run on the
// goroutine that owns the bus.
type Manager struct {
	mu     sync.RWMutex
	ports  map[fdb.PortDescriptor]fdb.BridgePort
	topo   PortResolver
	pub    *depbus.Publisher[fdb.PortDescriptor, fdb.BridgePort]
	logger *slog.Logger
}

func New(topo PortResolver, deps *depbus.Registry) *Manager {
	return &Manager{
		ports:  make(map[fdb.PortDescriptor]fdb.BridgePort),
		topo:   topo,
		pub:    deps.BridgePorts,
		logger: logger.Get(logger.Bridge),
	}
}

// AddBridgePort creates the bridge port for desc and publishes it. Adding an
// existing port returns it unchanged. A publish error means some dependents
// failed to bind; the bridge port itself stays.
func (m *Manager) AddBridgePort(desc fdb.PortDescriptor) (fdb.BridgePort, error) {
	m.mu.Lock()
	if bp, ok := m.ports[desc]; ok {
		m.mu.Unlock()
		return bp, nil
	}

	handle, ok := m.topo.PortHandle(desc)
	if !ok {
		m.mu.Unlock()
		return fdb.BridgePort{}, fmt.Errorf("bridge port for %s: no dataplane handle", desc)
	}

	id, err := m.allocateID()
	if err != nil {
		m.mu.Unlock()
		return fdb.BridgePort{}, fmt.Errorf("bridge port for %s: %w", desc, err)
	}

	bp := fdb.BridgePort{ID: id, Port: desc, Handle: handle}
	m.ports[desc] = bp
	m.mu.Unlock()

	m.logger.Info("Created bridge port", "port", desc.String(), "bridge_port", id, "handle", handle)

	if err := m.pub.Publish(desc, bp); err != nil {
		return bp, err
	}
	return bp, nil
}

// RemoveBridgePort withdraws the bridge port, which unbinds every dependent
// FDB entry, and frees its ID.
func (m *Manager) RemoveBridgePort(desc fdb.PortDescriptor) error {
	m.mu.Lock()
	bp, ok := m.ports[desc]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("bridge port for %s not found", desc)
	}
	delete(m.ports, desc)
	m.mu.Unlock()

	m.logger.Info("Removed bridge port", "port", desc.String(), "bridge_port", bp.ID)

	return m.pub.Withdraw(desc)
}

func (m *Manager) Get(desc fdb.PortDescriptor) (fdb.BridgePort, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bp, ok := m.ports[desc]
	return bp, ok
}

func (m *Manager) Lookup(id fdb.BridgePortID) (fdb.BridgePort, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, bp := range m.ports {
		if bp.ID == id {
			return bp, true
		}
	}
	return fdb.BridgePort{}, false
}

func (m *Manager) List() []fdb.BridgePort {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]fdb.BridgePort, 0, len(m.ports))
	for _, bp := range m.ports {
		result = append(result, bp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Reconcile makes the set of bridge ports equal to desired.
func (m *Manager) Reconcile(desired []fdb.PortDescriptor) error {
	want := make(map[fdb.PortDescriptor]bool, len(desired))
	for _, d := range desired {
		want[d] = true
	}

	var errs []error
	for _, bp := range m.List() {
		if !want[bp.Port] {
			if err := m.RemoveBridgePort(bp.Port); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, d := range desired {
		if _, err := m.AddBridgePort(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) allocateID() (fdb.BridgePortID, error) {
	used := make(map[fdb.BridgePortID]bool, len(m.ports))
	for _, bp := range m.ports {
		used[bp.ID] = true
	}

	for id := bridgePortIDMin; id <= bridgePortIDMax; id++ {
		if !used[id] {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no available bridge port ID in range %d-%d", bridgePortIDMin, bridgePortIDMax)
}
