package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/veesix-networks/fdbd/pkg/opdb"
)

var _ opdb.Store = (*Store)(nil)

// Store keeps the journal in process memory. It is used when no opdb path is
// configured, so nothing survives a restart.
type Store struct {
	items map[string]map[string][]byte
	mu    sync.RWMutex
}

func New() *Store {
	return &Store{
		items: make(map[string]map[string][]byte),
	}
}

func (s *Store) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.items[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.items[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[namespace], key)
	return nil
}

func (s *Store) Load(ctx context.Context, namespace string, fn opdb.LoadFunc) error {
	s.mu.RLock()
	ns := s.items[namespace]
	keys := make([]string, 0, len(ns))
	values := make(map[string][]byte, len(ns))
	for k, v := range ns {
		keys = append(keys, k)
		values[k] = v
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context, namespace string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[namespace]), nil
}

func (s *Store) Clear(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, namespace)
	return nil
}

func (s *Store) Close() error {
	return nil
}
