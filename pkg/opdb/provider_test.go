package opdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	ns       string
	restored bool
	err      error
}

func (p *fakeProvider) Namespaces() []string { return []string{p.ns} }

func (p *fakeProvider) Restore(ctx context.Context, store Store) error {
	p.restored = true
	return p.err
}

func TestRestoreAllStopsOnError(t *testing.T) {
	r := NewProviderRegistry()
	first := &fakeProvider{ns: "a", err: errors.New("corrupt")}
	second := &fakeProvider{ns: "b"}
	r.Register(first)
	r.Register(second)

	err := r.RestoreAll(context.Background(), nil)
	require.ErrorContains(t, err, "corrupt")
	require.ErrorContains(t, err, "[a]")
	require.True(t, first.restored)
	require.False(t, second.restored)
}
