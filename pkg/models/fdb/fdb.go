package fdb

import (
	"fmt"
	"net"
)

type InterfaceID uint32

type VlanID uint16

type PortID uint32

type AggregatePortID uint32

// PortHandle is the dataplane handle of a physical or aggregate port.
type PortHandle uint32

type RouterInterfaceHandle uint32

type BridgePortID uint32

type EntryType uint8

const (
	EntryTypeDynamic EntryType = iota
	EntryTypeStatic
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeStatic:
		return "static"
	case EntryTypeDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

func ParseEntryType(s string) (EntryType, error) {
	switch s {
	case "static":
		return EntryTypeStatic, nil
	case "dynamic", "":
		return EntryTypeDynamic, nil
	default:
		return EntryTypeDynamic, fmt.Errorf("invalid entry type %q", s)
	}
}

type MacAddress [6]byte

func ParseMAC(s string) (MacAddress, error) {
	var mac MacAddress
	hw, err := net.ParseMAC(s)
	if err != nil {
		return mac, err
	}
	if len(hw) != len(mac) {
		return mac, fmt.Errorf("unsupported MAC address %q: must be EUI-48", s)
	}
	copy(mac[:], hw)
	return mac, nil
}

func MustParseMAC(s string) MacAddress {
	mac, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

func (m MacAddress) String() string {
	return net.HardwareAddr(m[:]).String()
}

func (m MacAddress) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(m[:])
}

type PortType uint8

const (
	PortTypePhysical PortType = iota
	PortTypeAggregate
)

func (t PortType) String() string {
	if t == PortTypeAggregate {
		return "aggregate"
	}
	return "physical"
}

// PortDescriptor identifies the port a MAC was learned or configured on.
// It is comparable and used as a map key.
type PortDescriptor struct {
	Type PortType
	ID   uint32
}

func PhysicalPort(id PortID) PortDescriptor {
	return PortDescriptor{Type: PortTypePhysical, ID: uint32(id)}
}

func AggregatePort(id AggregatePortID) PortDescriptor {
	return PortDescriptor{Type: PortTypeAggregate, ID: uint32(id)}
}

func (p PortDescriptor) IsPhysicalPort() bool {
	return p.Type == PortTypePhysical
}

func (p PortDescriptor) PhysicalPortID() PortID {
	return PortID(p.ID)
}

func (p PortDescriptor) AggregatePortID() AggregatePortID {
	return AggregatePortID(p.ID)
}

func (p PortDescriptor) String() string {
	if p.IsPhysicalPort() {
		return fmt.Sprintf("port-%d", p.ID)
	}
	return fmt.Sprintf("lag-%d", p.ID)
}

// Key identifies a forwarding intent. A different interface or MAC is a
// different key.
type Key struct {
	Interface InterfaceID
	MAC       MacAddress
}

func (k Key) String() string {
	return fmt.Sprintf("(%d, %s)", k.Interface, k.MAC)
}

// MacEntry is the intent handed over by the MAC learning subsystem.
type MacEntry struct {
	MAC     MacAddress
	Port    PortDescriptor
	Type    EntryType
	ClassID *uint32
}

func (e MacEntry) Metadata() *uint32 {
	if e.ClassID == nil {
		return nil
	}
	v := *e.ClassID
	return &v
}

func (e MacEntry) Equal(o MacEntry) bool {
	if e.MAC != o.MAC || e.Port != o.Port || e.Type != o.Type {
		return false
	}
	if (e.ClassID == nil) != (o.ClassID == nil) {
		return false
	}
	return e.ClassID == nil || *e.ClassID == *o.ClassID
}

func (e MacEntry) String() string {
	class := "none"
	if e.ClassID != nil {
		class = fmt.Sprintf("%d", *e.ClassID)
	}
	return fmt.Sprintf("mac %s port %s type %s class %s", e.MAC, e.Port, e.Type, class)
}

// BridgePort is the dependency a forwarding entry needs before it can be
// programmed.
type BridgePort struct {
	ID     BridgePortID
	Port   PortDescriptor
	Handle PortHandle
}

type HardwareKey struct {
	SwitchID uint32
	VLAN     VlanID
	MAC      MacAddress
}

func (k HardwareKey) String() string {
	return fmt.Sprintf("%d/%d/%s", k.SwitchID, k.VLAN, k.MAC)
}

// L2Entry is the canonical record returned by the query path.
type L2Entry struct {
	VlanID    VlanID           `json:"vlan_id"`
	MAC       string           `json:"mac"`
	Port      *PortID          `json:"port,omitempty"`
	Trunk     *AggregatePortID `json:"trunk,omitempty"`
	Validated bool             `json:"validated"`
	ClassID   *uint32          `json:"class_id,omitempty"`
}

func Uint32Ptr(v uint32) *uint32 {
	return &v
}
