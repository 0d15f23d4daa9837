package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseLifecycle(t *testing.T) {
	b := NewBase("fdb")
	require.Equal(t, "fdb", b.Name())
	require.False(t, b.Running())

	b.StartContext(context.Background())
	require.True(t, b.Running())

	done := make(chan struct{})
	b.Go(func() {
		<-b.Ctx.Done()
		close(done)
	})

	b.StopContext()
	require.False(t, b.Running())

	select {
	case <-done:
	default:
		t.Fatal("StopContext returned before the goroutine exited")
	}
}
