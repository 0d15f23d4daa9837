package southbound

import "github.com/veesix-networks/fdbd/pkg/models/fdb"

// FDB programs hardware forwarding entries. Update and Del return an error
// wrapping ErrNotFound when the entry is no longer present, for example after
// the dataplane aged it out.
type FDB interface {
	AddFdbEntry(entry *FdbEntry) error
	UpdateFdbEntry(entry *FdbEntry) error
	DelFdbEntry(key fdb.HardwareKey) error
	GetFdbEntry(key fdb.HardwareKey) (*FdbEntry, error)
	DumpFdbEntries() ([]*FdbEntry, error)
}

// AgingNotifier is implemented by dataplanes that report aged out entries.
type AgingNotifier interface {
	SetAgingHandler(fn func(key fdb.HardwareKey))
}
