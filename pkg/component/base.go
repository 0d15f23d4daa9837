package component

import (
	"context"
	"sync"
)

// Base carries the lifecycle shared by every component: a cancelable
// context derived from the one passed to Start and the goroutines spawned
// with Go, which StopContext waits for.
type Base struct {
	name   string
	Ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBase(name string) *Base {
	return &Base{name: name}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) StartContext(parentCtx context.Context) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	b.Ctx, b.cancel = context.WithCancel(parentCtx)
}

// Running reports whether the component has been started and not stopped.
func (b *Base) Running() bool {
	return b.Ctx != nil && b.Ctx.Err() == nil
}

func (b *Base) StopContext() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

func (b *Base) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}
