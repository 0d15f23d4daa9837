package fdb

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/metrics"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// Topology resolves ports and interfaces to dataplane handles and back.
type Topology interface {
	PortHandle(desc fdb.PortDescriptor) (fdb.PortHandle, bool)
	RouterInterfaceHandle(id fdb.InterfaceID) (fdb.RouterInterfaceHandle, bool)
	RouterInterfaceVlan(h fdb.RouterInterfaceHandle) (fdb.VlanID, bool)
	InterfaceOfPort(desc fdb.PortDescriptor) (fdb.InterfaceID, bool)
	PortOfHandle(h fdb.PortHandle) (fdb.PortID, bool)
	AggregatePortOfHandle(h fdb.PortHandle) (fdb.AggregatePortID, bool)
}

type LearningMode string

const (
	LearningModeHardware LearningMode = "hardware"
	LearningModeSoftware LearningMode = "software"
)

type Config struct {
	SwitchID     uint32
	LearningMode LearningMode
	Store        *hwstore.Store
	Topology     Topology
	Deps         *depbus.Registry
	Metrics      *metrics.FdbMetrics
}

// Manager owns the forwarding entries of one switch and the port index used
// for link-down fan-out. It has no locks: every call must come from the same
// goroutine, the one that also owns the dependency bus.
type Manager struct {
	env          *env
	learningMode LearningMode
	metrics      *metrics.FdbMetrics
	logger       *slog.Logger

	entries    map[fdb.Key]*ManagedEntry
	portToKeys map[fdb.PortDescriptor]map[fdb.Key]struct{}
}

func NewManager(cfg Config) *Manager {
	log := logger.Get(logger.FDB)

	mode := cfg.LearningMode
	if mode == "" {
		mode = LearningModeHardware
	}

	return &Manager{
		env: &env{
			switchID: cfg.SwitchID,
			store:    cfg.Store,
			topo:     cfg.Topology,
			deps:     cfg.Deps,
			logger:   log,
		},
		learningMode: mode,
		metrics:      cfg.Metrics,
		logger:       log,
		entries:      make(map[fdb.Key]*ManagedEntry),
		portToKeys:   make(map[fdb.PortDescriptor]map[fdb.Key]struct{}),
	}
}

// AddEntry creates the entry for (intf, mac) and subscribes it to the bridge
// port of port. It binds immediately if the bridge port already exists.
// Adding a key that is already present is a no-op.
func (m *Manager) AddEntry(port fdb.PortDescriptor, intf fdb.InterfaceID, mac fdb.MacAddress, typ fdb.EntryType, metadata *uint32) error {
	key := fdb.Key{Interface: intf, MAC: mac}

	if existing, ok := m.entries[key]; ok {
		m.logger.Info("Duplicate FDB entry add ignored",
			"key", key.String(),
			"existing", existing.String(),
			"port", port.String(),
			"type", typ.String())
		return nil
	}

	rif, ok := m.env.topo.RouterInterfaceHandle(intf)
	if !ok {
		return fmt.Errorf("add %s: interface %d: %w", key, intf, ErrUnknownInterface)
	}

	entry := newManagedEntry(m.env, key, port, rif, typ, metadata)
	m.index(entry)

	sub, err := m.env.deps.BridgePorts.Subscribe(port, entry)
	if err != nil {
		if uerr := sub.Unsubscribe(); uerr != nil {
			err = errors.Join(err, uerr)
		}
		entry.release()
		m.unindex(entry)
		m.metrics.HardwareError("add")
		m.SyncMetrics()
		return fmt.Errorf("add %s: %w", key, err)
	}
	entry.sub = sub

	entry.logger.Debug("Added FDB entry", "type", typ.String(), "state", entry.state.String())
	m.SyncMetrics()
	return nil
}

// RemoveEntry unsubscribes the entry, destroying its hardware object if it
// is bound, and drops it from both indices. Removing an unknown key is a
// no-op.
func (m *Manager) RemoveEntry(intf fdb.InterfaceID, mac fdb.MacAddress) error {
	key := fdb.Key{Interface: intf, MAC: mac}

	entry, ok := m.entries[key]
	if !ok {
		m.logger.Warn("Attempted to remove non-existent FDB entry", "key", key.String())
		return nil
	}

	err := entry.sub.Unsubscribe()
	entry.release()
	m.unindex(entry)
	m.SyncMetrics()

	if err != nil {
		m.metrics.HardwareError("remove")
		return fmt.Errorf("remove %s: %w", key, err)
	}

	entry.logger.Debug("Removed FDB entry")
	return nil
}

// ChangeEntry moves the entry for (intf, oldEntry.MAC) from oldEntry to
// newEntry. A port change, or an entry whose hardware object is gone, is handled as remove
// then add. Otherwise type and metadata are updated in place; if that update
// loses the race against dataplane aging, a dynamic entry is recreated and a
// static one fails with ErrInvariantViolation.
func (m *Manager) ChangeEntry(intf fdb.InterfaceID, oldEntry, newEntry fdb.MacEntry) error {
	if oldEntry.MAC != newEntry.MAC {
		return fmt.Errorf("change %s -> %s: %w", oldEntry.MAC, newEntry.MAC, ErrMacMismatch)
	}
	if oldEntry.Equal(newEntry) {
		return nil
	}

	key := fdb.Key{Interface: intf, MAC: oldEntry.MAC}
	entry, ok := m.entries[key]
	if !ok {
		return fmt.Errorf("change %s: %w", key, ErrMissingIntent)
	}

	if oldEntry.Port != newEntry.Port || !entry.IsAlive() {
		entry.logger.Debug("Changing FDB entry by remove and add",
			"new_port", newEntry.Port.String(),
			"port_changed", oldEntry.Port != newEntry.Port)
		return m.replace(intf, newEntry)
	}

	err := entry.Update(newEntry.Type, newEntry.Metadata())
	if err == nil {
		entry.logger.Debug("Updated FDB entry in place", "type", newEntry.Type.String())
		return nil
	}

	if !errors.Is(err, ErrAgingRace) {
		m.metrics.HardwareError("update")
		return fmt.Errorf("change %s: %w", key, err)
	}

	if oldEntry.Type == fdb.EntryTypeStatic {
		m.metrics.HardwareError("update")
		return fmt.Errorf("change %s: static entry vanished from hardware: %w: %w", key, ErrInvariantViolation, err)
	}

	entry.logger.Info("Dynamic FDB entry aged out during update, recreating")
	m.metrics.AgingRaceRecovered()
	return m.replace(intf, newEntry)
}

func (m *Manager) replace(intf fdb.InterfaceID, to fdb.MacEntry) error {
	if err := m.RemoveEntry(intf, to.MAC); err != nil {
		return err
	}
	return m.AddEntry(to.Port, intf, to.MAC, to.Type, to.Metadata())
}

// HandleLinkDown notifies the dependents of every entry on port. Entries and
// their hardware objects are kept; aging them out is left to the MAC
// learning subsystem. It returns the number of entries notified.
func (m *Manager) HandleLinkDown(port fdb.PortDescriptor) (int, error) {
	keys := m.sortedPortKeys(port)

	entries := make([]*ManagedEntry, 0, len(keys))
	for _, key := range keys {
		entry, ok := m.entries[key]
		if !ok {
			return 0, fmt.Errorf("link down %s: indexed key %s has no entry: %w", port, key, ErrIndexCorruption)
		}
		entries = append(entries, entry)
	}

	listeners := 0
	for _, entry := range entries {
		listeners += entry.NotifyLinkDown()
	}

	m.metrics.LinkDown(len(entries))
	m.logger.Info("Link down fanned out", "port", port.String(), "entries", len(entries), "listeners", listeners)
	return len(entries), nil
}

func (m *Manager) index(entry *ManagedEntry) {
	m.entries[entry.key] = entry
	keys, ok := m.portToKeys[entry.port]
	if !ok {
		keys = make(map[fdb.Key]struct{})
		m.portToKeys[entry.port] = keys
	}
	keys[entry.key] = struct{}{}
}

func (m *Manager) unindex(entry *ManagedEntry) {
	delete(m.entries, entry.key)
	if keys, ok := m.portToKeys[entry.port]; ok {
		delete(keys, entry.key)
		if len(keys) == 0 {
			delete(m.portToKeys, entry.port)
		}
	}
}

// Entry returns the entry for key.
func (m *Manager) Entry(key fdb.Key) (*ManagedEntry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

func (m *Manager) Len() int {
	return len(m.entries)
}

func (m *Manager) BoundCount() int {
	return m.env.bound
}

// PortKeys returns the keys indexed under port in key order.
func (m *Manager) PortKeys(port fdb.PortDescriptor) []fdb.Key {
	return m.sortedPortKeys(port)
}

// Verify checks that the port index mirrors the entry map.
func (m *Manager) Verify() error {
	indexed := 0
	for port, keys := range m.portToKeys {
		for key := range keys {
			entry, ok := m.entries[key]
			if !ok {
				return fmt.Errorf("key %s indexed under %s has no entry: %w", key, port, ErrIndexCorruption)
			}
			if entry.port != port {
				return fmt.Errorf("key %s indexed under %s but entry is on %s: %w", key, port, entry.port, ErrIndexCorruption)
			}
			indexed++
		}
	}
	if indexed != len(m.entries) {
		return fmt.Errorf("%d indexed keys for %d entries: %w", indexed, len(m.entries), ErrIndexCorruption)
	}
	return nil
}

func (m *Manager) sortedEntries() []*ManagedEntry {
	out := make([]*ManagedEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return keyLess(out[i].key, out[j].key)
	})
	return out
}

func (m *Manager) sortedPortKeys(port fdb.PortDescriptor) []fdb.Key {
	keys := m.portToKeys[port]
	out := make([]fdb.Key, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return keyLess(out[i], out[j])
	})
	return out
}

// SyncMetrics publishes the entry gauges. Bridge port changes bind and unbind
// entries without going through the manager, so owners call it after every
// batch of work.
func (m *Manager) SyncMetrics() {
	m.metrics.SetEntries(len(m.entries), m.env.bound)
}

func keyLess(a, b fdb.Key) bool {
	if a.Interface != b.Interface {
		return a.Interface < b.Interface
	}
	return bytes.Compare(a.MAC[:], b.MAC[:]) < 0
}
