package vpp

import (
	"errors"
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
	"go.fd.io/govpp/api"
	"go.fd.io/govpp/binapi/ethernet_types"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/l2"
)

const allBridgeDomains = ^uint32(0)

// AddFdbEntry installs a MAC in the bridge domain of the entry's VLAN.
// VPP has no per-entry metadata, so Metadata is not programmed.
func (v *VPP) AddFdbEntry(entry *southbound.FdbEntry) error {
	v.fibMux.Lock()
	defer v.fibMux.Unlock()

	if err := v.l2fibAddDel(entry.Key, entry.Handle, entry.Type, true); err != nil {
		return fmt.Errorf("add fdb entry %s: %w", entry.Key, err)
	}

	v.logger.Debug("Added L2 FIB entry", "key", entry.Key.String(), "sw_if_index", entry.Handle, "type", entry.Type.String())
	return nil
}

// UpdateFdbEntry rewrites an existing entry. L2fibAddDel overwrites in place,
// so the entry is looked up first to report entries the dataplane aged out.
func (v *VPP) UpdateFdbEntry(entry *southbound.FdbEntry) error {
	v.fibMux.Lock()
	defer v.fibMux.Unlock()

	if _, err := v.lookup(entry.Key); err != nil {
		return fmt.Errorf("update fdb entry %s: %w", entry.Key, err)
	}

	if err := v.l2fibAddDel(entry.Key, entry.Handle, entry.Type, true); err != nil {
		return fmt.Errorf("update fdb entry %s: %w", entry.Key, err)
	}

	v.logger.Debug("Updated L2 FIB entry", "key", entry.Key.String(), "type", entry.Type.String())
	return nil
}

func (v *VPP) DelFdbEntry(key fdb.HardwareKey) error {
	v.fibMux.Lock()
	defer v.fibMux.Unlock()

	if err := v.l2fibAddDel(key, 0, fdb.EntryTypeDynamic, false); err != nil {
		return fmt.Errorf("delete fdb entry %s: %w", key, err)
	}

	v.logger.Debug("Deleted L2 FIB entry", "key", key.String())
	return nil
}

func (v *VPP) GetFdbEntry(key fdb.HardwareKey) (*southbound.FdbEntry, error) {
	v.fibMux.Lock()
	defer v.fibMux.Unlock()

	return v.lookup(key)
}

func (v *VPP) DumpFdbEntries() ([]*southbound.FdbEntry, error) {
	v.fibMux.Lock()
	defer v.fibMux.Unlock()

	return v.dump(allBridgeDomains)
}

func (v *VPP) l2fibAddDel(key fdb.HardwareKey, handle fdb.PortHandle, typ fdb.EntryType, isAdd bool) error {
	req := &l2.L2fibAddDel{
		Mac:       ethernet_types.MacAddress(key.MAC),
		BdID:      uint32(key.VLAN),
		SwIfIndex: interface_types.InterfaceIndex(handle),
		IsAdd:     isAdd,
		StaticMac: typ == fdb.EntryTypeStatic,
	}

	reply := &l2.L2fibAddDelReply{}
	if err := v.fibChan.SendRequest(req).ReceiveReply(reply); err != nil {
		return translateError(err)
	}
	return nil
}

func (v *VPP) lookup(key fdb.HardwareKey) (*southbound.FdbEntry, error) {
	entries, err := v.dump(uint32(key.VLAN))
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.Key.MAC == key.MAC {
			e.Key.SwitchID = key.SwitchID
			return e, nil
		}
	}
	return nil, southbound.ErrNotFound
}

func (v *VPP) dump(bdID uint32) ([]*southbound.FdbEntry, error) {
	reqCtx := v.fibChan.SendMultiRequest(&l2.L2FibTableDump{BdID: bdID})

	var entries []*southbound.FdbEntry
	for {
		reply := &l2.L2FibTableDetails{}
		stop, err := reqCtx.ReceiveReply(reply)
		if stop {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("receive L2 FIB details: %w", err)
		}
		if reply.BviMac || reply.FilterMac {
			continue
		}

		typ := fdb.EntryTypeDynamic
		if reply.StaticMac {
			typ = fdb.EntryTypeStatic
		}

		entries = append(entries, &southbound.FdbEntry{
			Key: fdb.HardwareKey{
				VLAN: fdb.VlanID(reply.BdID),
				MAC:  fdb.MacAddress(reply.Mac),
			},
			Handle: fdb.PortHandle(reply.SwIfIndex),
			Type:   typ,
		})
	}

	return entries, nil
}

func translateError(err error) error {
	var vppErr api.VPPApiError
	if errors.As(err, &vppErr) && vppErr == api.NO_SUCH_ENTRY {
		return fmt.Errorf("%w: %v", southbound.ErrNotFound, err)
	}
	return err
}
