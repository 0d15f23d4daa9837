package fdb

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
)

type EntryState uint8

const (
	EntryPending EntryState = iota
	EntryBound
	EntryReleased
)

func (s EntryState) String() string {
	switch s {
	case EntryPending:
		return "pending"
	case EntryBound:
		return "bound"
	case EntryReleased:
		return "released"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// env is the state entries share with their manager.
type env struct {
	switchID uint32
	store    *hwstore.Store
	topo     Topology
	deps     *depbus.Registry
	logger   *slog.Logger
	bound    int
}

// ManagedEntry binds one (interface, MAC) intent to a hardware FDB object
// once the bridge port of its port is available. It subscribes to the bridge
// port through the dependency bus and never holds the bridge port itself.
type ManagedEntry struct {
	env *env

	key      fdb.Key
	port     fdb.PortDescriptor
	rif      fdb.RouterInterfaceHandle
	typ      fdb.EntryType
	metadata *uint32

	state      EntryState
	obj        *hwstore.Object
	bridgePort fdb.BridgePortID
	vlan       fdb.VlanID
	sub        *depbus.Subscription[fdb.PortDescriptor, fdb.BridgePort]
	logger     *slog.Logger
}

func newManagedEntry(e *env, key fdb.Key, port fdb.PortDescriptor, rif fdb.RouterInterfaceHandle, typ fdb.EntryType, metadata *uint32) *ManagedEntry {
	return &ManagedEntry{
		env:      e,
		key:      key,
		port:     port,
		rif:      rif,
		typ:      typ,
		metadata: copyMetadata(metadata),
		logger: logger.WithFdbEntry(e.logger, logger.FdbAttrs{
			Interface: uint32(key.Interface),
			MAC:       key.MAC.String(),
			Port:      port.String(),
		}),
	}
}

func (e *ManagedEntry) Key() fdb.Key {
	return e.key
}

func (e *ManagedEntry) Port() fdb.PortDescriptor {
	return e.port
}

func (e *ManagedEntry) Type() fdb.EntryType {
	return e.typ
}

func (e *ManagedEntry) Metadata() *uint32 {
	return copyMetadata(e.metadata)
}

func (e *ManagedEntry) State() EntryState {
	return e.state
}

func (e *ManagedEntry) BridgePort() fdb.BridgePortID {
	return e.bridgePort
}

func (e *ManagedEntry) VLAN() fdb.VlanID {
	return e.vlan
}

// HardwareKey is only meaningful while the entry is bound.
func (e *ManagedEntry) HardwareKey() fdb.HardwareKey {
	return fdb.HardwareKey{SwitchID: e.env.switchID, VLAN: e.vlan, MAC: e.key.MAC}
}

// OnAvailable creates the hardware object for the newly available bridge
// port. The VLAN is resolved here, once, from the router interface. If it
// cannot be resolved the entry stays pending.
func (e *ManagedEntry) OnAvailable(bp fdb.BridgePort) error {
	if e.state == EntryReleased {
		return nil
	}
	if e.state == EntryBound {
		if err := e.OnWithdrawn(); err != nil {
			return err
		}
	}

	vlan, ok := e.env.topo.RouterInterfaceVlan(e.rif)
	if !ok {
		e.logger.Warn("Router interface has no VLAN, entry stays pending", "rif", e.rif)
		return nil
	}

	hwKey := fdb.HardwareKey{SwitchID: e.env.switchID, VLAN: vlan, MAC: e.key.MAC}
	obj, err := e.env.store.Create(hwKey, hwstore.Attributes{
		Type:       e.typ,
		BridgePort: bp,
		Metadata:   copyMetadata(e.metadata),
	}, e.key)
	if err != nil {
		return fmt.Errorf("bind %s: %w", e.key, err)
	}
	obj.SetIgnoreMissingInHwOnDelete(true)

	e.obj = obj
	e.vlan = vlan
	e.bridgePort = bp.ID
	e.state = EntryBound
	e.env.bound++

	e.logger.Debug("Bound", "vlan", vlan, "bridge_port", bp.ID, "type", e.typ.String())

	if err := e.env.deps.FdbEntries.Publish(e.key, hwKey); err != nil {
		e.logger.Warn("Dependents failed to bind to entry", "error", err)
	}
	return nil
}

// OnWithdrawn destroys the hardware object and returns the entry to pending.
func (e *ManagedEntry) OnWithdrawn() error {
	if e.state != EntryBound {
		return nil
	}

	if err := e.env.deps.FdbEntries.Withdraw(e.key); err != nil {
		e.logger.Warn("Dependents failed to unbind from entry", "error", err)
	}

	obj := e.obj
	e.obj = nil
	e.state = EntryPending
	e.env.bound--

	if err := e.env.store.Destroy(obj); err != nil {
		return fmt.Errorf("unbind %s: %w", e.key, err)
	}

	e.logger.Debug("Unbound", "vlan", e.vlan, "bridge_port", e.bridgePort)
	return nil
}

// Update rewrites type and metadata on the bound hardware object. A nil
// metadata clears the classification tag. If the dataplane no longer
// has the object the error wraps ErrAgingRace.
func (e *ManagedEntry) Update(typ fdb.EntryType, metadata *uint32) error {
	if e.state != EntryBound {
		return fmt.Errorf("update %s: %w", e.key, ErrNotBound)
	}

	if err := e.obj.Update(typ, metadata); err != nil {
		if errors.Is(err, southbound.ErrNotFound) {
			return fmt.Errorf("update %s: %w: %w", e.key, ErrAgingRace, err)
		}
		return fmt.Errorf("update %s: %w", e.key, err)
	}

	e.typ = typ
	e.metadata = copyMetadata(metadata)
	return nil
}

// NotifyLinkDown tells every dependent of this entry that its port went
// down. The entry and its hardware object are left in place.
func (e *ManagedEntry) NotifyLinkDown() int {
	return e.env.deps.FdbEntries.NotifyLinkDown(e.key)
}

// IsAlive reports whether the entry is bound and the dataplane still has its
// hardware object.
func (e *ManagedEntry) IsAlive() bool {
	return e.state == EntryBound && e.obj.Alive()
}

// L2Entry converts a bound entry to its query record. The port or trunk is
// resolved back from the dataplane handle the entry was programmed with.
func (e *ManagedEntry) L2Entry() (fdb.L2Entry, error) {
	if e.state != EntryBound {
		return fdb.L2Entry{}, fmt.Errorf("l2 entry %s: %w", e.key, ErrNotBound)
	}

	handle := e.obj.Attributes().BridgePort.Handle
	out := fdb.L2Entry{
		VlanID:    e.vlan,
		MAC:       e.key.MAC.String(),
		Validated: true,
		ClassID:   copyMetadata(e.metadata),
	}

	if port, ok := e.env.topo.PortOfHandle(handle); ok {
		out.Port = &port
		return out, nil
	}
	if trunk, ok := e.env.topo.AggregatePortOfHandle(handle); ok {
		out.Trunk = &trunk
		return out, nil
	}
	return fdb.L2Entry{}, fmt.Errorf("l2 entry %s: handle %d is neither a port nor a trunk: %w", e.key, handle, ErrIndexCorruption)
}

func (e *ManagedEntry) String() string {
	status := "inactive"
	if e.state == EntryBound {
		status = "active"
	}
	meta := "none"
	if e.metadata != nil {
		meta = fmt.Sprintf("%d", *e.metadata)
	}
	return fmt.Sprintf("%s port: %s, interface: %d, mac: %s, type: %s, metadata: %s",
		status, e.port, e.key.Interface, e.key.MAC, e.typ, meta)
}

func (e *ManagedEntry) release() {
	e.state = EntryReleased
	e.sub = nil
}

func copyMetadata(m *uint32) *uint32 {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
