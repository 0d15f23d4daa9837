package southbound

import "github.com/veesix-networks/fdbd/pkg/models/fdb"

type FdbEntry struct {
	Key        fdb.HardwareKey
	BridgePort fdb.BridgePortID
	Handle     fdb.PortHandle
	Type       fdb.EntryType
	Metadata   *uint32
}

func (e *FdbEntry) Clone() *FdbEntry {
	c := *e
	if e.Metadata != nil {
		v := *e.Metadata
		c.Metadata = &v
	}
	return &c
}
