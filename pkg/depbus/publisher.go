package depbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/veesix-networks/fdbd/pkg/logger"
)

// Subscriber is notified when the object it depends on appears or goes away.
type Subscriber[O any] interface {
	OnAvailable(obj O) error
	OnWithdrawn() error
}

// Observer sees every Publish and Withdraw on a publisher after subscribers
// have been dispatched.
type Observer[K comparable, O any] func(key K, obj O, available bool)

// Publisher is a keyed dependency registry. Dispatch is synchronous and runs
// on the caller's stack; callbacks may call back into the publisher.
// A Publisher is not safe for concurrent use.
type Publisher[K comparable, O any] struct {
	name      string
	objects   map[K]O
	subs      map[K]map[uint64]*Subscription[K, O]
	linkDown  map[K]map[uint64]func()
	observers []Observer[K, O]
	nextID    uint64
	logger    *slog.Logger
}

func NewPublisher[K comparable, O any](name string) *Publisher[K, O] {
	return &Publisher[K, O]{
		name:     name,
		objects:  make(map[K]O),
		subs:     make(map[K]map[uint64]*Subscription[K, O]),
		linkDown: make(map[K]map[uint64]func()),
		logger:   logger.Get(logger.DepBus).With("publisher", name),
	}
}

type Subscription[K comparable, O any] struct {
	pub    *Publisher[K, O]
	key    K
	id     uint64
	sub    Subscriber[O]
	active bool
	bound  bool
}

func (s *Subscription[K, O]) Key() K {
	return s.key
}

// Bound reports whether OnAvailable succeeded and has not been undone yet.
func (s *Subscription[K, O]) Bound() bool {
	return s.bound
}

// Unsubscribe detaches the subscriber. A bound subscriber gets OnWithdrawn
// before Unsubscribe returns.
func (s *Subscription[K, O]) Unsubscribe() error {
	if !s.active {
		return nil
	}
	s.active = false

	if keySubs, ok := s.pub.subs[s.key]; ok {
		delete(keySubs, s.id)
		if len(keySubs) == 0 {
			delete(s.pub.subs, s.key)
		}
	}

	if !s.bound {
		return nil
	}
	s.bound = false
	return s.sub.OnWithdrawn()
}

// Subscribe registers sub for key. If the object is already published,
// OnAvailable runs before Subscribe returns and its error is returned with a
// live subscription.
func (p *Publisher[K, O]) Subscribe(key K, sub Subscriber[O]) (*Subscription[K, O], error) {
	p.nextID++
	s := &Subscription[K, O]{
		pub:    p,
		key:    key,
		id:     p.nextID,
		sub:    sub,
		active: true,
	}

	if p.subs[key] == nil {
		p.subs[key] = make(map[uint64]*Subscription[K, O])
	}
	p.subs[key][s.id] = s

	obj, ok := p.objects[key]
	if !ok {
		return s, nil
	}
	if err := sub.OnAvailable(obj); err != nil {
		return s, err
	}
	s.bound = true
	return s, nil
}

// Publish makes obj available under key. Subscribers already bound to a
// previous object are withdrawn first.
func (p *Publisher[K, O]) Publish(key K, obj O) error {
	_, replaced := p.objects[key]
	p.objects[key] = obj

	p.logger.Debug("Publish", "key", key, "replaced", replaced)

	var errs []error
	for _, s := range p.snapshot(key) {
		if !s.active {
			continue
		}
		if s.bound {
			s.bound = false
			if err := s.sub.OnWithdrawn(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := s.sub.OnAvailable(obj); err != nil {
			errs = append(errs, err)
			continue
		}
		s.bound = true
	}

	for _, o := range p.observers {
		o(key, obj, true)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publish %s %v: %w", p.name, key, err)
	}
	return nil
}

// Withdraw removes the object under key and withdraws every bound
// subscriber. Subscriptions stay registered and bind again on the next
// Publish.
func (p *Publisher[K, O]) Withdraw(key K) error {
	obj, ok := p.objects[key]
	if !ok {
		return nil
	}
	delete(p.objects, key)

	p.logger.Debug("Withdraw", "key", key)

	var errs []error
	for _, s := range p.snapshot(key) {
		if !s.active || !s.bound {
			continue
		}
		s.bound = false
		if err := s.sub.OnWithdrawn(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, o := range p.observers {
		o(key, obj, false)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("withdraw %s %v: %w", p.name, key, err)
	}
	return nil
}

func (p *Publisher[K, O]) Lookup(key K) (O, bool) {
	obj, ok := p.objects[key]
	return obj, ok
}

func (p *Publisher[K, O]) Len() int {
	return len(p.objects)
}

// Subscribers returns the number of registered subscriptions for key.
func (p *Publisher[K, O]) Subscribers(key K) int {
	return len(p.subs[key])
}

func (p *Publisher[K, O]) Observe(o Observer[K, O]) {
	p.observers = append(p.observers, o)
}

// SubscribeLinkDown registers fn to run on NotifyLinkDown(key). The returned
// func cancels the registration.
func (p *Publisher[K, O]) SubscribeLinkDown(key K, fn func()) func() {
	p.nextID++
	id := p.nextID

	if p.linkDown[key] == nil {
		p.linkDown[key] = make(map[uint64]func())
	}
	p.linkDown[key][id] = fn

	return func() {
		if fns, ok := p.linkDown[key]; ok {
			delete(fns, id)
			if len(fns) == 0 {
				delete(p.linkDown, key)
			}
		}
	}
}

// NotifyLinkDown runs every link-down listener of key in registration order
// and returns how many ran.
func (p *Publisher[K, O]) NotifyLinkDown(key K) int {
	fns := p.linkDown[key]
	if len(fns) == 0 {
		return 0
	}

	ids := make([]uint64, 0, len(fns))
	for id := range fns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ordered := make([]func(), 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, fns[id])
	}

	for _, fn := range ordered {
		fn()
	}
	return len(ordered)
}

func (p *Publisher[K, O]) snapshot(key K) []*Subscription[K, O] {
	keySubs := p.subs[key]
	out := make([]*Subscription[K, O], 0, len(keySubs))
	for _, s := range keySubs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
