package hwstore

import (
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// Attributes are the programmable fields of a hardware FDB object.
type Attributes struct {
	Type       fdb.EntryType
	BridgePort fdb.BridgePort
	Metadata   *uint32
}

func (a Attributes) Equal(o Attributes) bool {
	if a.Type != o.Type || a.BridgePort != o.BridgePort {
		return false
	}
	if (a.Metadata == nil) != (o.Metadata == nil) {
		return false
	}
	return a.Metadata == nil || *a.Metadata == *o.Metadata
}

func (a Attributes) clone() Attributes {
	if a.Metadata != nil {
		v := *a.Metadata
		a.Metadata = &v
	}
	return a
}

// Object is a handle to one hardware FDB entry. Handles are only valid until
// Destroy or Release; methods on a stale handle fail with ErrReleased.
type Object struct {
	store         *Store
	key           fdb.HardwareKey
	owner         fdb.Key
	attrs         Attributes
	ignoreMissing bool
	warmboot      bool
	aged          bool
	released      bool
}

func (o *Object) Key() fdb.HardwareKey {
	return o.key
}

// Owner is the software key that claimed the object. It is the zero Key for
// rediscovered objects nobody claimed yet.
func (o *Object) Owner() fdb.Key {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return o.owner
}

func (o *Object) Attributes() Attributes {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return o.attrs.clone()
}

func (o *Object) Type() fdb.EntryType {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return o.attrs.Type
}

// SetIgnoreMissingInHwOnDelete makes Destroy succeed when the dataplane no
// longer has the entry.
func (o *Object) SetIgnoreMissingInHwOnDelete(ignore bool) {
	o.store.mu.Lock()
	o.ignoreMissing = ignore
	o.store.mu.Unlock()
}

// Alive reports whether the dataplane is still believed to hold the entry.
func (o *Object) Alive() bool {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return !o.released && !o.aged
}

// Update rewrites type and metadata in place. A nil metadata clears the
// programmed metadata. If the dataplane no longer has the entry the
// object is marked aged and the error wraps southbound.ErrNotFound.
func (o *Object) Update(typ fdb.EntryType, metadata *uint32) error {
	return o.store.update(o, typ, metadata)
}

// Release drops the handle without deleting the dataplane entry.
func (o *Object) Release() {
	o.store.release(o)
}

func (o *Object) String() string {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()

	meta := "none"
	if o.attrs.Metadata != nil {
		meta = fmt.Sprintf("%d", *o.attrs.Metadata)
	}
	return fmt.Sprintf("%s type %s bridge_port %d handle %d metadata %s",
		o.key, o.attrs.Type, o.attrs.BridgePort.ID, o.attrs.BridgePort.Handle, meta)
}
