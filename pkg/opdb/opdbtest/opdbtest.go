// Package opdbtest checks an opdb.Store implementation against the behaviour
// the warm-boot journal relies on.
package opdbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/fdbd/pkg/opdb"
)

func Run(t *testing.T, newStore func(t *testing.T) opdb.Store) {
	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, "a", []byte("1")))
		require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, "a", []byte("2")))

		got := load(t, s, opdb.NamespaceFdbObjects)
		require.Equal(t, map[string]string{"a": "2"}, got)
	})

	t.Run("LoadIsKeyOrdered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, k := range []string{"c", "a", "b"} {
			require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, k, []byte(k)))
		}

		var keys []string
		require.NoError(t, s.Load(ctx, opdb.NamespaceFdbObjects, func(key string, _ []byte) error {
			keys = append(keys, key)
			return nil
		}))
		require.Equal(t, []string{"a", "b", "c"}, keys)
	})

	t.Run("NamespacesAreIsolated", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, "a", []byte("1")))
		require.NoError(t, s.Put(ctx, "other", "a", []byte("x")))
		require.NoError(t, s.Clear(ctx, "other"))

		n, err := s.Count(ctx, opdb.NamespaceFdbObjects)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = s.Count(ctx, "other")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, "a", []byte("1")))
		require.NoError(t, s.Delete(ctx, opdb.NamespaceFdbObjects, "a"))
		require.NoError(t, s.Delete(ctx, opdb.NamespaceFdbObjects, "missing"))
		require.Empty(t, load(t, s, opdb.NamespaceFdbObjects))
	})

	t.Run("LoadCallbackMayWrite", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, opdb.NamespaceFdbObjects, "a", []byte("1")))
		require.NoError(t, s.Load(ctx, opdb.NamespaceFdbObjects, func(key string, _ []byte) error {
			return s.Delete(ctx, opdb.NamespaceFdbObjects, key)
		}))
		require.Empty(t, load(t, s, opdb.NamespaceFdbObjects))
	})
}

func load(t *testing.T, s opdb.Store, namespace string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, s.Load(context.Background(), namespace, func(key string, value []byte) error {
		out[key] = string(value)
		return nil
	}))
	return out
}
