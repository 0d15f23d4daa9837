package opdb

import "context"

// Store is a namespaced key/value journal that survives control plane
// restarts.
type Store interface {
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Load(ctx context.Context, namespace string, fn LoadFunc) error
	Count(ctx context.Context, namespace string) (int, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

// LoadFunc is called once per record, in key order.
type LoadFunc func(key string, value []byte) error

const (
	NamespaceFdbObjects = "fdb_objects"
)
