package fdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veesix-networks/fdbd/pkg/bridge"
	"github.com/veesix-networks/fdbd/pkg/component"
	"github.com/veesix-networks/fdbd/pkg/config"
	"github.com/veesix-networks/fdbd/pkg/config/system"
	"github.com/veesix-networks/fdbd/pkg/depbus"
	"github.com/veesix-networks/fdbd/pkg/events"
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/logger"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/opdb"
	"github.com/veesix-networks/fdbd/pkg/topology"
)

var ErrNotRunning = errors.New("fdb component is not running")

const jobQueueSize = 1024

type job struct {
	fn   func(*Manager) error
	done chan error
}

// Component runs the forwarding table manager on a single update goroutine.
// Intents, link state changes and queries are all submitted to it as jobs,
// so the manager and the dependency bus never see concurrent calls.
type Component struct {
	*component.Base

	logger   *slog.Logger
	eventBus events.Bus
	cfg      *config.Config
	topo     *topology.Manager
	deps     *depbus.Registry
	store    *hwstore.Store
	journal  opdb.Store
	restore  *opdb.ProviderRegistry
	bridge   *bridge.Manager
	mgr      *Manager
	holdTime time.Duration

	jobs chan job
	subs []events.Subscription
}

func New(deps component.Dependencies) (component.Component, error) {
	if deps.Store == nil || deps.Topology == nil || deps.Deps == nil {
		return nil, fmt.Errorf("fdb component requires a hardware store, topology and dependency registry")
	}

	var (
		switchID uint32
		mode     = LearningModeHardware
		holdTime = system.DefaultWarmbootHoldTime
	)
	if deps.Config != nil {
		switchID = deps.Config.Switch.ID
		if deps.Config.Switch.L2LearningMode == system.LearningModeSoftware {
			mode = LearningModeSoftware
		}
		if deps.Config.Switch.WarmbootHoldTime > 0 {
			holdTime = deps.Config.Switch.WarmbootHoldTime
		}
	}

	c := &Component{
		Base:     component.NewBase("fdb"),
		logger:   logger.Component(logger.FDB),
		eventBus: deps.EventBus,
		cfg:      deps.Config,
		topo:     deps.Topology,
		deps:     deps.Deps,
		store:    deps.Store,
		journal:  deps.Journal,
		restore:  opdb.NewProviderRegistry(),
		bridge:   bridge.New(deps.Topology, deps.Deps),
		holdTime: holdTime,
		jobs:     make(chan job, jobQueueSize),
	}
	c.mgr = NewManager(Config{
		SwitchID:     switchID,
		LearningMode: mode,
		Store:        deps.Store,
		Topology:     deps.Topology,
		Deps:         deps.Deps,
		Metrics:      deps.Metrics,
	})
	c.restore.Register(deps.Store)
	c.deps.FdbEntries.Observe(c.publishEntryState)

	return c, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting FDB component", "learning_mode", c.mgr.learningMode, "warmboot_hold_time", c.holdTime)

	if err := c.restore.RestoreAll(c.Ctx, c.journal); err != nil {
		c.StopContext()
		return fmt.Errorf("restore hardware store: %w", err)
	}

	c.Go(c.run)

	if err := c.Do(c.Ctx, c.bootstrap); err != nil {
		c.StopContext()
		return fmt.Errorf("bootstrap fdb: %w", err)
	}

	if c.eventBus != nil {
		c.subs = append(c.subs,
			c.eventBus.Subscribe(events.TopicMacIntent, c.handleMacIntent),
			c.eventBus.Subscribe(events.TopicLinkState, c.handleLinkState),
		)
	}

	c.Go(c.purgeAfterHold)

	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping FDB component")

	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil

	c.StopContext()
	return nil
}

// Do runs fn on the update goroutine and waits for its result.
func (c *Component) Do(ctx context.Context, fn func(*Manager) error) error {
	if !c.Running() {
		return ErrNotRunning
	}

	j := job{fn: fn, done: make(chan error, 1)}
	if err := c.submit(ctx, j); err != nil {
		return err
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.Ctx.Done():
		return ErrNotRunning
	}
}

func (c *Component) submit(ctx context.Context, j job) error {
	select {
	case c.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.Ctx.Done():
		return ErrNotRunning
	}
}

func (c *Component) enqueue(what string, fn func(*Manager) error) {
	if !c.Running() {
		return
	}
	err := c.submit(c.Ctx, job{fn: func(m *Manager) error {
		if err := fn(m); err != nil {
			c.logger.Error("FDB update failed", "op", what, "error", err)
		}
		return nil
	}})
	if err != nil {
		c.logger.Warn("Dropped FDB update", "op", what, "error", err)
	}
}

func (c *Component) run() {
	for {
		select {
		case <-c.Ctx.Done():
			return
		case j := <-c.jobs:
			err := j.fn(c.mgr)
			c.mgr.SyncMetrics()
			if j.done != nil {
				j.done <- err
			}
		}
	}
}

// bootstrap brings the bridge ports up for every bridged port, replays the
// configured static MACs and then releases the rediscovered dynamic entries
// nobody claimed.
func (c *Component) bootstrap(m *Manager) error {
	if err := c.bridge.Reconcile(c.topo.BridgedPorts()); err != nil {
		c.logger.Warn("Bridge port reconciliation incomplete", "error", err)
	}

	if c.cfg != nil {
		for _, s := range c.cfg.StaticMacs {
			entry, err := staticMacEntry(c.cfg, s.MAC, s.Port, s.ClassID)
			if err != nil {
				return err
			}
			if err := m.AddMac(entry); err != nil {
				c.logger.Warn("Failed to add static MAC", "mac", s.MAC, "port", s.Port, "error", err)
			}
		}
	}

	m.ReconcileWarmBoot()
	c.logger.Info("FDB bootstrap complete", "entries", m.Len(), "bound", m.BoundCount(), "bridge_ports", len(c.bridge.List()))
	return nil
}

func staticMacEntry(cfg *config.Config, mac, port string, classID *uint32) (fdb.MacEntry, error) {
	addr, err := fdb.ParseMAC(mac)
	if err != nil {
		return fdb.MacEntry{}, fmt.Errorf("static mac %s: %w", mac, err)
	}
	desc, err := cfg.ResolvePort(port)
	if err != nil {
		return fdb.MacEntry{}, fmt.Errorf("static mac %s: %w", mac, err)
	}
	var class *uint32
	if classID != nil {
		class = fdb.Uint32Ptr(*classID)
	}
	return fdb.MacEntry{MAC: addr, Port: desc, Type: fdb.EntryTypeStatic, ClassID: class}, nil
}

func (c *Component) purgeAfterHold() {
	timer := time.NewTimer(c.holdTime)
	defer timer.Stop()

	select {
	case <-c.Ctx.Done():
		return
	case <-timer.C:
	}

	var purged int
	err := c.Do(c.Ctx, func(m *Manager) error {
		var err error
		purged, err = m.PurgeWarmBoot()
		return err
	})
	if err != nil {
		c.logger.Warn("Warm boot purge incomplete", "purged", purged, "error", err)
		return
	}
	c.logger.Info("Warm boot hold time elapsed", "purged", purged)
}

func (c *Component) handleMacIntent(ev events.Event) {
	intent, ok := ev.Data.(events.MacIntentEvent)
	if !ok {
		c.logger.Warn("Unexpected MAC intent payload", "type", fmt.Sprintf("%T", ev.Data))
		return
	}

	switch intent.Op {
	case events.MacIntentAdd:
		if intent.New == nil {
			c.logger.Warn("MAC add intent without entry")
			return
		}
		e := *intent.New
		c.enqueue("add", func(m *Manager) error { return m.AddMac(e) })
	case events.MacIntentRemove:
		if intent.Old == nil {
			c.logger.Warn("MAC remove intent without entry")
			return
		}
		e := *intent.Old
		c.enqueue("remove", func(m *Manager) error { return m.RemoveMac(e) })
	case events.MacIntentChange:
		if intent.Old == nil || intent.New == nil {
			c.logger.Warn("MAC change intent without old and new entry")
			return
		}
		oldEntry, newEntry := *intent.Old, *intent.New
		c.enqueue("change", func(m *Manager) error { return m.ChangeMac(oldEntry, newEntry) })
	default:
		c.logger.Warn("Unknown MAC intent", "op", intent.Op)
	}
}

func (c *Component) handleLinkState(ev events.Event) {
	ls, ok := ev.Data.(events.LinkStateEvent)
	if !ok {
		c.logger.Warn("Unexpected link state payload", "type", fmt.Sprintf("%T", ev.Data))
		return
	}

	port := ls.Port
	if ls.Name != "" {
		desc, ok := c.topo.SetLinkState(ls.Name, ls.LinkUp)
		if !ok {
			c.logger.Debug("Link state for unknown port", "name", ls.Name)
			return
		}
		port = desc
	}
	if ls.LinkUp {
		return
	}

	c.enqueue("link-down", func(m *Manager) error {
		_, err := m.HandleLinkDown(port)
		return err
	})
}

// publishEntryState runs on the update goroutine whenever an entry binds or
// unbinds.
func (c *Component) publishEntryState(key fdb.Key, hwKey fdb.HardwareKey, available bool) {
	if c.eventBus == nil {
		return
	}

	state := events.FdbEntryPending
	if available {
		state = events.FdbEntryBound
	}

	ev := events.FdbEntryEvent{Key: key, VLAN: hwKey.VLAN, State: state}
	if entry, ok := c.mgr.Entry(key); ok {
		ev.Port = entry.Port()
	}
	c.eventBus.Publish(events.TopicFdbEntry, events.NewEvent("fdb", ev))
}

// ListEntries returns the bound entries as query records.
func (c *Component) ListEntries(ctx context.Context) ([]fdb.L2Entry, error) {
	var out []fdb.L2Entry
	err := c.Do(ctx, func(m *Manager) error {
		var err error
		out, err = m.ListEntries()
		return err
	})
	return out, err
}

func (c *Component) ListManagedObjects(ctx context.Context) ([]string, error) {
	var out []string
	err := c.Do(ctx, func(m *Manager) error {
		out = m.ListManagedObjects()
		return nil
	})
	return out, err
}

func (c *Component) Bridge() *bridge.Manager {
	return c.bridge
}
