package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
)

var (
	_ southbound.Southbound    = (*Dataplane)(nil)
	_ southbound.AgingNotifier = (*Dataplane)(nil)
)

// Dataplane is an in-memory FDB used when no VPP is available and in tests.
// Entries can be aged with Age (reported to the aging handler) or Expire
// (silent, as if the notification was lost).
type Dataplane struct {
	mu      sync.Mutex
	entries map[fdb.HardwareKey]*southbound.FdbEntry
	onAged  func(fdb.HardwareKey)
	failOn  map[string]error
	calls   map[string]int
	logger  *slog.Logger

	// BeforeUpdate runs before UpdateFdbEntry looks the entry up.
	BeforeUpdate func(key fdb.HardwareKey)
}

func New() *Dataplane {
	return &Dataplane{
		entries: make(map[fdb.HardwareKey]*southbound.FdbEntry),
		failOn:  make(map[string]error),
		calls:   make(map[string]int),
		logger:  logger.Get(logger.Southbound).WithGroup("sim"),
	}
}

func (d *Dataplane) AddFdbEntry(entry *southbound.FdbEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls["add"]++
	if err := d.failOn["add"]; err != nil {
		return err
	}

	d.entries[entry.Key] = entry.Clone()
	d.logger.Debug("Added entry", "key", entry.Key.String(), "type", entry.Type.String())
	return nil
}

func (d *Dataplane) UpdateFdbEntry(entry *southbound.FdbEntry) error {
	if hook := d.BeforeUpdate; hook != nil {
		hook(entry.Key)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls["update"]++
	if err := d.failOn["update"]; err != nil {
		return err
	}

	if _, ok := d.entries[entry.Key]; !ok {
		return fmt.Errorf("update %s: %w", entry.Key, southbound.ErrNotFound)
	}
	d.entries[entry.Key] = entry.Clone()
	return nil
}

func (d *Dataplane) DelFdbEntry(key fdb.HardwareKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls["del"]++
	if err := d.failOn["del"]; err != nil {
		return err
	}

	if _, ok := d.entries[key]; !ok {
		return fmt.Errorf("delete %s: %w", key, southbound.ErrNotFound)
	}
	delete(d.entries, key)
	return nil
}

func (d *Dataplane) GetFdbEntry(key fdb.HardwareKey) (*southbound.FdbEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, southbound.ErrNotFound)
	}
	return e.Clone(), nil
}

func (d *Dataplane) DumpFdbEntries() ([]*southbound.FdbEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*southbound.FdbEntry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out, nil
}

func (d *Dataplane) SetAgingHandler(fn func(key fdb.HardwareKey)) {
	d.mu.Lock()
	d.onAged = fn
	d.mu.Unlock()
}

// Learn installs an entry as if the dataplane had learned or kept it across
// a control plane restart.
func (d *Dataplane) Learn(entry *southbound.FdbEntry) {
	d.mu.Lock()
	d.entries[entry.Key] = entry.Clone()
	d.mu.Unlock()
}

// Age removes key and reports it to the aging handler. It returns false if
// the key was not present.
func (d *Dataplane) Age(key fdb.HardwareKey) bool {
	d.mu.Lock()
	_, ok := d.entries[key]
	delete(d.entries, key)
	fn := d.onAged
	d.mu.Unlock()

	if ok && fn != nil {
		fn(key)
	}
	return ok
}

// Expire removes key without notifying anyone.
func (d *Dataplane) Expire(key fdb.HardwareKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.entries[key]
	delete(d.entries, key)
	return ok
}

// FailOn makes every subsequent call of op ("add", "update" or "del") return
// err. A nil err clears the failure.
func (d *Dataplane) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err == nil {
		delete(d.failOn, op)
		return
	}
	d.failOn[op] = err
}

func (d *Dataplane) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

func (d *Dataplane) Has(key fdb.HardwareKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[key]
	return ok
}

func (d *Dataplane) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *Dataplane) Close() error {
	return nil
}
