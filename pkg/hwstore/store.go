package hwstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/metrics"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/opdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
)

var (
	ErrReleased = errors.New("hardware object already released")
	ErrConflict = errors.New("hardware key owned by another entry")
)

var (
	_ opdb.Provider            = (*Store)(nil)
	_ metrics.StoreStatsSource = (*Store)(nil)
)

// Store owns the hardware FDB objects of one switch. Objects are created
// through the dataplane driver and checkpointed to the opdb journal so that
// a restarted process can reclaim them.
type Store struct {
	mu       sync.Mutex
	switchID uint32
	dp       southbound.FDB
	journal  opdb.Store
	objects  map[fdb.HardwareKey]*Object
	warmboot map[fdb.HardwareKey]*Object
	logger   *slog.Logger
}

type Config struct {
	SwitchID  uint32
	Dataplane southbound.FDB
	Journal   opdb.Store
}

func New(cfg Config) *Store {
	s := &Store{
		switchID: cfg.SwitchID,
		dp:       cfg.Dataplane,
		journal:  cfg.Journal,
		objects:  make(map[fdb.HardwareKey]*Object),
		warmboot: make(map[fdb.HardwareKey]*Object),
		logger:   logger.Get(logger.HwStore),
	}

	if n, ok := cfg.Dataplane.(southbound.AgingNotifier); ok {
		n.SetAgingHandler(s.HandleAged)
	}

	return s
}

// Create returns the object for key, creating it in the dataplane if needed.
// It is idempotent for the same owner; a rediscovered warm boot object with
// the same key is claimed and its attributes corrected instead of recreated.
func (s *Store) Create(key fdb.HardwareKey, attrs Attributes, owner fdb.Key) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[key]; ok {
		if obj.owner != owner {
			return nil, fmt.Errorf("create %s for %s: %w (owner %s)", key, owner, ErrConflict, obj.owner)
		}
		if obj.aged {
			obj.attrs = attrs.clone()
			if err := s.dp.AddFdbEntry(s.entryFor(obj)); err != nil {
				return nil, fmt.Errorf("create %s: %w", key, err)
			}
			obj.aged = false
			s.checkpoint(obj)
			return obj, nil
		}
		if !obj.attrs.Equal(attrs) {
			if err := s.program(obj, attrs); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}

	if obj, ok := s.warmboot[key]; ok {
		delete(s.warmboot, key)
		obj.warmboot = false
		obj.owner = owner
		s.objects[key] = obj

		if !obj.attrs.Equal(attrs) {
			if err := s.program(obj, attrs); err != nil {
				delete(s.objects, key)
				obj.released = true
				s.forget(key)
				return nil, err
			}
		}
		s.checkpoint(obj)
		s.logger.Debug("Claimed warm boot object", "key", key.String(), "owner", owner.String())
		return obj, nil
	}

	obj := &Object{
		store: s,
		key:   key,
		owner: owner,
		attrs: attrs.clone(),
	}
	if err := s.dp.AddFdbEntry(s.entryFor(obj)); err != nil {
		return nil, fmt.Errorf("create %s: %w", key, err)
	}
	s.objects[key] = obj
	s.checkpoint(obj)

	s.logger.Debug("Created object", "key", key.String(), "owner", owner.String(), "type", attrs.Type.String())
	return obj, nil
}

// Destroy deletes the object from the dataplane and the store. A missing
// dataplane entry is tolerated when the object was marked with
// SetIgnoreMissingInHwOnDelete.
func (s *Store) Destroy(obj *Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj.released {
		return nil
	}

	if err := s.dp.DelFdbEntry(obj.key); err != nil {
		if !errors.Is(err, southbound.ErrNotFound) || !obj.ignoreMissing {
			return fmt.Errorf("destroy %s: %w", obj.key, err)
		}
		s.logger.Debug("Object already absent in dataplane", "key", obj.key.String())
	}

	delete(s.objects, obj.key)
	obj.released = true
	s.forget(obj.key)
	return nil
}

// RemoveUnclaimedWarmbootHandlesIf releases every rediscovered, unclaimed
// object for which pred returns true. Released objects stay in the dataplane.
func (s *Store) RemoveUnclaimedWarmbootHandlesIf(pred func(*Object) bool) int {
	s.mu.Lock()
	candidates := s.sortedWarmboot()
	s.mu.Unlock()

	removed := 0
	for _, obj := range candidates {
		if !pred(obj) {
			continue
		}
		s.mu.Lock()
		if s.warmboot[obj.key] == obj {
			delete(s.warmboot, obj.key)
			obj.released = true
			s.forget(obj.key)
			removed++
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		s.logger.Info("Released unclaimed warm boot objects", "count", removed)
	}
	return removed
}

// PurgeUnclaimed deletes every remaining unclaimed warm boot object from the
// dataplane.
func (s *Store) PurgeUnclaimed() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	purged := 0
	for _, obj := range s.sortedWarmboot() {
		if err := s.dp.DelFdbEntry(obj.key); err != nil && !errors.Is(err, southbound.ErrNotFound) {
			errs = append(errs, fmt.Errorf("purge %s: %w", obj.key, err))
			continue
		}
		delete(s.warmboot, obj.key)
		obj.released = true
		s.forget(obj.key)
		purged++
	}

	if purged > 0 {
		s.logger.Info("Purged unclaimed warm boot objects", "count", purged)
	}
	return purged, errors.Join(errs...)
}

// HandleAged records that the dataplane aged out key.
func (s *Store) HandleAged(key fdb.HardwareKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.objects[key]; ok {
		obj.aged = true
		s.logger.Debug("Owned object aged out", "key", key.String(), "owner", obj.owner.String())
		return
	}
	if obj, ok := s.warmboot[key]; ok {
		delete(s.warmboot, key)
		obj.released = true
		s.forget(key)
		s.logger.Debug("Warm boot object aged out", "key", key.String())
	}
}

// Lookup returns the claimed object for key.
func (s *Store) Lookup(key fdb.HardwareKey) (*Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// WarmbootObjects returns the unclaimed rediscovered objects in key order.
func (s *Store) WarmbootObjects() []*Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedWarmboot()
}

func (s *Store) StoreStats() metrics.StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := metrics.StoreStats{
		Objects:  len(s.objects),
		Warmboot: len(s.warmboot),
	}
	for _, obj := range s.objects {
		if obj.aged {
			st.Aged++
		}
	}
	return st
}

func (s *Store) update(obj *Object, typ fdb.EntryType, metadata *uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj.released {
		return fmt.Errorf("update %s: %w", obj.key, ErrReleased)
	}

	attrs := obj.attrs.clone()
	attrs.Type = typ
	attrs.Metadata = nil
	if metadata != nil {
		v := *metadata
		attrs.Metadata = &v
	}
	return s.program(obj, attrs)
}

func (s *Store) program(obj *Object, attrs Attributes) error {
	prev := obj.attrs
	obj.attrs = attrs.clone()

	if err := s.dp.UpdateFdbEntry(s.entryFor(obj)); err != nil {
		obj.attrs = prev
		if errors.Is(err, southbound.ErrNotFound) {
			obj.aged = true
		}
		return fmt.Errorf("update %s: %w", obj.key, err)
	}

	s.checkpoint(obj)
	return nil
}

func (s *Store) release(obj *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj.released {
		return
	}
	if s.objects[obj.key] == obj {
		delete(s.objects, obj.key)
	}
	if s.warmboot[obj.key] == obj {
		delete(s.warmboot, obj.key)
	}
	obj.released = true
	s.forget(obj.key)
}

func (s *Store) entryFor(obj *Object) *southbound.FdbEntry {
	return &southbound.FdbEntry{
		Key:        obj.key,
		BridgePort: obj.attrs.BridgePort.ID,
		Handle:     obj.attrs.BridgePort.Handle,
		Type:       obj.attrs.Type,
		Metadata:   obj.attrs.Metadata,
	}
}

func (s *Store) sortedWarmboot() []*Object {
	out := make([]*Object, 0, len(s.warmboot))
	for _, obj := range s.warmboot {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.String() < out[j].key.String()
	})
	return out
}

// Reload rediscovers the dataplane FDB through the journal this store was
// built with.
func (s *Store) Reload(ctx context.Context) error {
	return s.Restore(ctx, s.journal)
}

func (s *Store) Namespaces() []string {
	return []string{opdb.NamespaceFdbObjects}
}
