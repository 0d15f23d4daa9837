package fdb

import (
	"fmt"

	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// ListEntries returns a record for every bound entry, ordered by key.
func (m *Manager) ListEntries() ([]fdb.L2Entry, error) {
	out := make([]fdb.L2Entry, 0, m.env.bound)
	for _, e := range m.sortedEntries() {
		if e.state != EntryBound {
			continue
		}
		l2, err := e.L2Entry()
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		out = append(out, l2)
	}
	return out, nil
}

// ListManagedObjects describes every entry, bound or not, one per line.
func (m *Manager) ListManagedObjects() []string {
	entries := m.sortedEntries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.String())
	}
	return out
}
