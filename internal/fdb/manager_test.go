package fdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
	"github.com/veesix-networks/fdbd/pkg/southbound"
)

func TestAddEntryKeepsKeysUnique(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, port2)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port2, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, fdb.Uint32Ptr(3)))
	require.NoError(t, f.mgr.AddEntry(port4, intfB, mac1, fdb.EntryTypeDynamic, nil))

	require.Equal(t, 2, f.mgr.Len())
	require.Equal(t, port1, f.entry(t, intfA, mac1).Port())
	require.Equal(t, port4, f.entry(t, intfB, mac1).Port())
	require.Equal(t, 1, f.dp.Calls("add"))
	f.requireIndexMatchesEntries(t)
}

func TestAddEntryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, nil))
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

	e := f.entry(t, intfA, mac1)
	require.Equal(t, fdb.EntryTypeStatic, e.Type())
	require.Equal(t, fdb.EntryTypeStatic, f.hwEntry(t, vlanA, mac1).Type)
	require.Equal(t, 1, f.dp.Calls("add"))
	require.Zero(t, f.dp.Calls("update"))
}

func TestAddEntryUnknownInterface(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	err := f.mgr.AddEntry(port1, 999, mac1, fdb.EntryTypeDynamic, nil)
	require.ErrorIs(t, err, ErrUnknownInterface)
	require.Zero(t, f.mgr.Len())
	require.Empty(t, f.mgr.PortKeys(port1))
}

func TestAddEntryHardwareFailure(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	boom := errors.New("boom")

	f.dp.FailOn("add", boom)
	err := f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil)
	require.ErrorIs(t, err, boom)
	require.Zero(t, f.mgr.Len())
	require.Zero(t, f.deps.BridgePorts.Subscribers(port1))
	f.requireIndexMatchesEntries(t)
	require.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_dataplane_errors_total", "op", "add"))

	f.dp.FailOn("add", nil)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.Equal(t, EntryBound, f.entry(t, intfA, mac1).State())
}

func TestIndexConsistencyAcrossOperations(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, port2, lag1)

	steps := []struct {
		name string
		op   func() error
	}{
		{"add mac1 on port1", func() error {
			return f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil)
		}},
		{"add mac2 on port1", func() error {
			return f.mgr.AddEntry(port1, intfA, mac2, fdb.EntryTypeDynamic, nil)
		}},
		{"add mac3 on lag1", func() error {
			return f.mgr.AddEntry(lag1, intfA, mac3, fdb.EntryTypeDynamic, nil)
		}},
		{"add mac1 on port4 pending", func() error {
			return f.mgr.AddEntry(port4, intfB, mac1, fdb.EntryTypeDynamic, nil)
		}},
		{"move mac2 to port2", func() error {
			return f.mgr.ChangeEntry(intfA,
				fdb.MacEntry{MAC: mac2, Port: port1, Type: fdb.EntryTypeDynamic},
				fdb.MacEntry{MAC: mac2, Port: port2, Type: fdb.EntryTypeDynamic})
		}},
		{"remove mac1 from port1", func() error {
			return f.mgr.RemoveEntry(intfA, mac1)
		}},
		{"make mac3 static", func() error {
			return f.mgr.ChangeEntry(intfA,
				fdb.MacEntry{MAC: mac3, Port: lag1, Type: fdb.EntryTypeDynamic},
				fdb.MacEntry{MAC: mac3, Port: lag1, Type: fdb.EntryTypeStatic})
		}},
		{"remove unknown", func() error {
			return f.mgr.RemoveEntry(intfB, mac3)
		}},
	}

	for _, step := range steps {
		require.NoError(t, step.op(), step.name)
		f.requireIndexMatchesEntries(t)
	}

	require.Equal(t, 3, f.mgr.Len())
	require.Empty(t, f.mgr.PortKeys(port1))
	require.Equal(t, []fdb.Key{{Interface: intfA, MAC: mac2}}, f.mgr.PortKeys(port2))
	require.Equal(t, []fdb.Key{{Interface: intfA, MAC: mac3}}, f.mgr.PortKeys(lag1))
	require.Equal(t, []fdb.Key{{Interface: intfB, MAC: mac1}}, f.mgr.PortKeys(port4))
}

func TestEntryBindsWhenBridgePortAppears(t *testing.T) {
	f := newFixture(t)
	key := fdb.Key{Interface: intfA, MAC: mac1}

	require.NoError(t, f.mgr.AddEntry(port2, intfA, mac1, fdb.EntryTypeDynamic, nil))
	e := f.entry(t, intfA, mac1)
	require.Equal(t, EntryPending, e.State())
	require.False(t, e.IsAlive())
	require.Zero(t, f.dp.Len())
	_, published := f.deps.FdbEntries.Lookup(key)
	require.False(t, published)

	bp, err := f.bridge.AddBridgePort(port2)
	require.NoError(t, err)

	require.Equal(t, EntryBound, e.State())
	require.True(t, e.IsAlive())
	require.Equal(t, hwKey(vlanA, mac1), e.HardwareKey())
	require.Equal(t, vlanA, e.VLAN())
	require.Equal(t, bp.ID, e.BridgePort())
	require.Equal(t, fdb.PortHandle(12), f.hwEntry(t, vlanA, mac1).Handle)
	hk, published := f.deps.FdbEntries.Lookup(key)
	require.True(t, published)
	require.Equal(t, hwKey(vlanA, mac1), hk)

	require.NoError(t, f.bridge.RemoveBridgePort(port2))
	require.Equal(t, EntryPending, e.State())
	require.Zero(t, f.dp.Len())
	require.Equal(t, 1, f.mgr.Len())
	_, published = f.deps.FdbEntries.Lookup(key)
	require.False(t, published)

	_, err = f.bridge.AddBridgePort(port2)
	require.NoError(t, err)
	require.Equal(t, EntryBound, e.State())
	require.True(t, f.dp.Has(hwKey(vlanA, mac1)))
}

func TestHandleLinkDownIsNonDestructive(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, lag1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac2, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, nil))
	require.NoError(t, f.mgr.AddEntry(lag1, intfA, mac3, fdb.EntryTypeDynamic, nil))

	var notified []fdb.Key
	for _, mac := range []fdb.MacAddress{mac1, mac2, mac3} {
		key := fdb.Key{Interface: intfA, MAC: mac}
		f.deps.FdbEntries.SubscribeLinkDown(key, func() {
			notified = append(notified, key)
		})
	}

	before, err := f.mgr.ListEntries()
	require.NoError(t, err)
	require.Len(t, before, 3)

	n, err := f.mgr.HandleLinkDown(port1)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []fdb.Key{{Interface: intfA, MAC: mac1}, {Interface: intfA, MAC: mac2}}, notified)

	after, err := f.mgr.ListEntries()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, 3, f.mgr.Len())
	require.Len(t, f.mgr.PortKeys(port1), 2)
	require.Equal(t, 3, f.dp.Len())
	require.Zero(t, f.dp.Calls("del"))
	require.Equal(t, 2.0, metricValue(t, f.reg, "fdbd_fdb_link_down_notifications_total"))

	n, err = f.mgr.HandleLinkDown(port2)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHandleLinkDownDetectsIndexCorruption(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

	calls := 0
	f.deps.FdbEntries.SubscribeLinkDown(fdb.Key{Interface: intfA, MAC: mac1}, func() { calls++ })

	f.mgr.portToKeys[port1][fdb.Key{Interface: intfA, MAC: mac2}] = struct{}{}

	n, err := f.mgr.HandleLinkDown(port1)
	require.ErrorIs(t, err, ErrIndexCorruption)
	require.Zero(t, n)
	require.Zero(t, calls, "no listener may run when the index is corrupt")
	require.ErrorIs(t, f.mgr.Verify(), ErrIndexCorruption)
}

func TestChangeEntryMovesPort(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, port2)
	key := fdb.Key{Interface: intfA, MAC: mac1}

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.ChangeEntry(intfA,
		fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic},
		fdb.MacEntry{MAC: mac1, Port: port2, Type: fdb.EntryTypeDynamic}))

	require.Empty(t, f.mgr.PortKeys(port1))
	require.Equal(t, []fdb.Key{key}, f.mgr.PortKeys(port2))

	e := f.entry(t, intfA, mac1)
	require.Equal(t, key, e.Key())
	require.Equal(t, port2, e.Port())
	require.Equal(t, EntryBound, e.State())
	require.Equal(t, fdb.PortHandle(12), f.hwEntry(t, vlanA, mac1).Handle)
	require.Equal(t, 1, f.mgr.Len())
	f.requireIndexMatchesEntries(t)
}

func TestChangeEntryUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	before := f.entry(t, intfA, mac1)

	require.NoError(t, f.mgr.ChangeEntry(intfA,
		fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic},
		fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeStatic, ClassID: fdb.Uint32Ptr(9)}))

	after := f.entry(t, intfA, mac1)
	require.Same(t, before, after)
	require.Equal(t, fdb.EntryTypeStatic, after.Type())
	require.Equal(t, uint32(9), *after.Metadata())

	hw := f.hwEntry(t, vlanA, mac1)
	require.Equal(t, fdb.EntryTypeStatic, hw.Type)
	require.Equal(t, uint32(9), *hw.Metadata)
	require.Equal(t, 1, f.dp.Calls("add"))
	require.Equal(t, 1, f.dp.Calls("update"))
}

func TestChangeEntryRecoversAgedDynamic(t *testing.T) {
	tests := []struct {
		name        string
		age         func(f *fixture)
		wantUpdates int
		wantRaces   float64
	}{
		{
			name: "aging reported before change",
			age: func(f *fixture) {
				f.dp.Age(hwKey(vlanA, mac1))
			},
			wantUpdates: 0,
			wantRaces:   0,
		},
		{
			name: "aged silently before change",
			age: func(f *fixture) {
				f.dp.Expire(hwKey(vlanA, mac1))
			},
			wantUpdates: 1,
			wantRaces:   1,
		},
		{
			name: "aged while the update is in flight",
			age: func(f *fixture) {
				f.dp.BeforeUpdate = func(key fdb.HardwareKey) {
					f.dp.Expire(key)
					f.dp.BeforeUpdate = nil
				}
			},
			wantUpdates: 1,
			wantRaces:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addBridgePorts(t, port1)
			require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

			tt.age(f)

			err := f.mgr.ChangeEntry(intfA,
				fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic},
				fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic, ClassID: fdb.Uint32Ptr(5)})
			require.NoError(t, err)

			e := f.entry(t, intfA, mac1)
			require.Equal(t, EntryBound, e.State())
			require.True(t, e.IsAlive())
			require.Equal(t, uint32(5), *e.Metadata())
			require.True(t, f.dp.Has(hwKey(vlanA, mac1)))
			require.Equal(t, uint32(5), *f.hwEntry(t, vlanA, mac1).Metadata)
			require.Equal(t, 2, f.dp.Calls("add"))
			require.Equal(t, tt.wantUpdates, f.dp.Calls("update"))
			require.Equal(t, tt.wantRaces, metricValue(t, f.reg, "fdbd_fdb_aging_race_recoveries_total"))
			f.requireIndexMatchesEntries(t)
		})
	}
}

func TestChangeEntryStaticVanishedIsInvariantViolation(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, nil))

	f.dp.Expire(hwKey(vlanA, mac1))

	err := f.mgr.ChangeEntry(intfA,
		fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeStatic},
		fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeStatic, ClassID: fdb.Uint32Ptr(4)})
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, err, ErrAgingRace)

	require.Equal(t, 1, f.mgr.Len())
	require.Equal(t, 1, f.dp.Calls("add"))
	require.False(t, f.entry(t, intfA, mac1).IsAlive())
	require.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_dataplane_errors_total", "op", "update"))
}

func TestChangeEntryRejectsBadIntents(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

	tests := []struct {
		name     string
		intf     fdb.InterfaceID
		from, to fdb.MacEntry
		want     error
	}{
		{
			name: "missing intent",
			intf: intfA,
			from: fdb.MacEntry{MAC: mac2, Port: port1},
			to:   fdb.MacEntry{MAC: mac2, Port: port1, Type: fdb.EntryTypeStatic},
			want: ErrMissingIntent,
		},
		{
			name: "missing intent on other interface",
			intf: intfB,
			from: fdb.MacEntry{MAC: mac1, Port: port1},
			to:   fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeStatic},
			want: ErrMissingIntent,
		},
		{
			name: "mac mismatch",
			intf: intfA,
			from: fdb.MacEntry{MAC: mac1, Port: port1},
			to:   fdb.MacEntry{MAC: mac2, Port: port1},
			want: ErrMacMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, f.mgr.ChangeEntry(tt.intf, tt.from, tt.to), tt.want)
		})
	}

	require.Equal(t, 1, f.mgr.Len())
	require.Equal(t, 1, f.dp.Calls("add"))
	require.Zero(t, f.dp.Calls("update"))
}

func TestChangeEntryWithEqualIntentIsNoop(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, fdb.Uint32Ptr(1)))

	e := fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic, ClassID: fdb.Uint32Ptr(1)}
	require.NoError(t, f.mgr.ChangeEntry(intfA, e, e))
	require.Equal(t, 1, f.dp.Calls("add"))
	require.Zero(t, f.dp.Calls("update"))
}

func TestChangeEntryOnPendingEntryReplacesIt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mgr.AddEntry(port2, intfA, mac1, fdb.EntryTypeDynamic, nil))

	require.NoError(t, f.mgr.ChangeEntry(intfA,
		fdb.MacEntry{MAC: mac1, Port: port2, Type: fdb.EntryTypeDynamic},
		fdb.MacEntry{MAC: mac1, Port: port2, Type: fdb.EntryTypeStatic}))

	e := f.entry(t, intfA, mac1)
	require.Equal(t, EntryPending, e.State())
	require.Equal(t, fdb.EntryTypeStatic, e.Type())
	require.Equal(t, 1, f.deps.BridgePorts.Subscribers(port2))

	f.addBridgePorts(t, port2)
	require.Equal(t, fdb.EntryTypeStatic, f.hwEntry(t, vlanA, mac1).Type)
}

func TestRemoveEntry(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	key := fdb.Key{Interface: intfA, MAC: mac1}

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac2, fdb.EntryTypeDynamic, nil))
	removed := f.entry(t, intfA, mac1)

	require.NoError(t, f.mgr.RemoveEntry(intfA, mac1))
	require.Equal(t, EntryReleased, removed.State())
	require.False(t, f.dp.Has(hwKey(vlanA, mac1)))
	require.Equal(t, 1, f.mgr.Len())
	require.Equal(t, 1, f.deps.BridgePorts.Subscribers(port1))
	_, published := f.deps.FdbEntries.Lookup(key)
	require.False(t, published)

	require.NoError(t, f.mgr.RemoveEntry(intfA, mac1), "removing an unknown key is a no-op")

	f.dp.Expire(hwKey(vlanA, mac2))
	require.NoError(t, f.mgr.RemoveEntry(intfA, mac2), "an entry the dataplane already dropped is removed quietly")
	require.Zero(t, f.mgr.Len())
	f.requireIndexMatchesEntries(t)

	// A released entry ignores late bridge port events.
	require.NoError(t, removed.OnAvailable(fdb.BridgePort{ID: 1, Port: port1, Handle: 11}))
	require.Equal(t, EntryReleased, removed.State())
	require.Zero(t, f.dp.Len())
}

func TestRemoveEntryPropagatesHardwareFailure(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

	boom := errors.New("boom")
	f.dp.FailOn("del", boom)

	err := f.mgr.RemoveEntry(intfA, mac1)
	require.ErrorIs(t, err, boom)
	require.Zero(t, f.mgr.Len())
	f.requireIndexMatchesEntries(t)
	require.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_dataplane_errors_total", "op", "remove"))
}

func TestReconcileWarmBootReleasesOnlyUnclaimedDynamic(t *testing.T) {
	f := newFixture(t)
	learnAll(f, map[fdb.MacAddress]fdb.EntryType{
		mac1: fdb.EntryTypeDynamic,
		mac2: fdb.EntryTypeDynamic,
		mac3: fdb.EntryTypeStatic,
	})
	require.NoError(t, f.store.Reload(context.Background()))
	require.Len(t, f.store.WarmbootObjects(), 3)

	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac2, fdb.EntryTypeDynamic, nil))
	require.Zero(t, f.dp.Calls("add"), "a rediscovered entry is claimed, not recreated")

	released := f.mgr.ReconcileWarmBoot()
	require.Equal(t, 1, released)

	remaining := f.store.WarmbootObjects()
	require.Len(t, remaining, 1)
	require.Equal(t, hwKey(vlanA, mac3), remaining[0].Key())
	require.Equal(t, fdb.EntryTypeStatic, remaining[0].Type())

	require.True(t, f.dp.Has(hwKey(vlanA, mac1)), "released dynamic entries are left to dataplane aging")
	require.True(t, f.dp.Has(hwKey(vlanA, mac3)))
	require.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_warmboot_released_total"))

	purged, err := f.mgr.PurgeWarmBoot()
	require.NoError(t, err)
	require.Equal(t, 1, purged)
	require.False(t, f.dp.Has(hwKey(vlanA, mac3)))
	require.True(t, f.dp.Has(hwKey(vlanA, mac1)))
	require.True(t, f.dp.Has(hwKey(vlanA, mac2)))
	require.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_warmboot_purged_total"))
}

func TestReconcileWarmBootSkippedInSoftwareLearning(t *testing.T) {
	f := newFixtureWithMode(t, LearningModeSoftware)
	learnAll(f, map[fdb.MacAddress]fdb.EntryType{
		mac1: fdb.EntryTypeDynamic,
		mac2: fdb.EntryTypeStatic,
	})
	require.NoError(t, f.store.Reload(context.Background()))

	require.Zero(t, f.mgr.ReconcileWarmBoot())
	require.Len(t, f.store.WarmbootObjects(), 2)
	require.Equal(t, 2, f.dp.Len())
}

func TestListEntriesRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, lag1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, fdb.Uint32Ptr(7)))
	require.NoError(t, f.mgr.AddEntry(lag1, intfA, mac2, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port4, intfB, mac3, fdb.EntryTypeDynamic, nil))

	entries, err := f.mgr.ListEntries()
	require.NoError(t, err)

	port := fdb.PortID(1)
	trunk := fdb.AggregatePortID(1)
	require.Equal(t, []fdb.L2Entry{
		{VlanID: vlanA, MAC: "02:00:00:00:00:01", Port: &port, Validated: true, ClassID: fdb.Uint32Ptr(7)},
		{VlanID: vlanA, MAC: "02:00:00:00:00:02", Trunk: &trunk, Validated: true},
	}, entries)
}

func TestListManagedObjects(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	require.NoError(t, f.mgr.AddEntry(port4, intfB, mac3, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, fdb.Uint32Ptr(7)))

	require.Equal(t, []string{
		"active port: port-1, interface: 100, mac: 02:00:00:00:00:01, type: static, metadata: 7",
		"inactive port: port-4, interface: 200, mac: 02:00:00:00:00:03, type: dynamic, metadata: none",
	}, f.mgr.ListManagedObjects())
}

func TestListEntriesDetectsUnresolvableHandle(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)
	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))

	f.topo.RemovePort(1)

	_, err := f.mgr.ListEntries()
	require.ErrorIs(t, err, ErrIndexCorruption)
}

// Router interfaces are resolved once, at bind time. Deleting one leaves
// bound entries programmed with the VLAN they were bound with until they are
// removed, keeps pending entries pending, and rejects new entries.
func TestInterfaceDeletedUnderEntries(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeStatic, nil))
	require.NoError(t, f.mgr.AddEntry(lag1, intfA, mac2, fdb.EntryTypeDynamic, nil))

	f.topo.RemoveInterface(intfA)

	bound := f.entry(t, intfA, mac1)
	require.Equal(t, EntryBound, bound.State())
	require.Equal(t, vlanA, bound.VLAN())
	require.True(t, f.dp.Has(hwKey(vlanA, mac1)))

	entries, err := f.mgr.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, vlanA, entries[0].VlanID)

	require.ErrorIs(t, f.mgr.AddEntry(port1, intfA, mac3, fdb.EntryTypeDynamic, nil), ErrUnknownInterface)
	require.ErrorIs(t, f.mgr.AddMac(fdb.MacEntry{MAC: mac3, Port: port1}), ErrUnknownInterface)

	f.addBridgePorts(t, lag1)
	require.Equal(t, EntryPending, f.entry(t, intfA, mac2).State())
	require.Equal(t, 1, f.dp.Len())

	require.NoError(t, f.mgr.RemoveMac(fdb.MacEntry{MAC: mac1, Port: port1}))
	require.False(t, f.dp.Has(hwKey(vlanA, mac1)))
	require.Equal(t, 1, f.mgr.Len())
	f.requireIndexMatchesEntries(t)
}

func TestIntentRouting(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port4)

	learned := fdb.MacEntry{MAC: mac1, Port: port4, Type: fdb.EntryTypeDynamic}
	require.NoError(t, f.mgr.AddMac(learned))
	e := f.entry(t, intfB, mac1)
	require.Equal(t, hwKey(vlanB, mac1), e.HardwareKey())

	reclassified := learned
	reclassified.ClassID = fdb.Uint32Ptr(3)
	require.NoError(t, f.mgr.ChangeMac(learned, reclassified))
	require.Equal(t, uint32(3), *f.hwEntry(t, vlanB, mac1).Metadata)

	require.NoError(t, f.mgr.RemoveMac(reclassified))
	require.Zero(t, f.mgr.Len())
	require.NoError(t, f.mgr.RemoveMac(reclassified))

	require.ErrorIs(t, f.mgr.ChangeMac(learned, reclassified), ErrMissingIntent)
	require.ErrorIs(t, f.mgr.AddMac(fdb.MacEntry{MAC: mac2, Port: fdb.PhysicalPort(5)}), ErrUnknownInterface)
}

func TestChangeMacAcrossInterfaces(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1, port4)

	learned := fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeDynamic}
	require.NoError(t, f.mgr.AddMac(learned))

	moved := learned
	moved.Port = port4
	require.NoError(t, f.mgr.ChangeMac(learned, moved))

	_, ok := f.mgr.Entry(fdb.Key{Interface: intfA, MAC: mac1})
	require.False(t, ok)
	e := f.entry(t, intfB, mac1)
	require.Equal(t, port4, e.Port())
	require.Equal(t, hwKey(vlanB, mac1), e.HardwareKey())
	require.False(t, f.dp.Has(hwKey(vlanA, mac1)))
	require.Equal(t, fdb.PortHandle(14), f.hwEntry(t, vlanB, mac1).Handle)
	f.requireIndexMatchesEntries(t)

	require.NoError(t, f.mgr.RemoveMac(moved))
	require.Zero(t, f.mgr.Len())
	require.Zero(t, f.dp.Len())

	require.ErrorIs(t, f.mgr.ChangeMac(learned, moved), ErrMissingIntent)
	require.NoError(t, f.mgr.AddMac(learned))
	require.ErrorIs(t, f.mgr.ChangeMac(learned, fdb.MacEntry{MAC: mac1, Port: fdb.PhysicalPort(5)}), ErrUnknownInterface)
	require.ErrorIs(t, f.mgr.ChangeMac(learned, fdb.MacEntry{MAC: mac2, Port: port4}), ErrMacMismatch)
	require.Equal(t, port1, f.entry(t, intfA, mac1).Port())
}

func TestChangeMacClearsClassID(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	tagged := fdb.MacEntry{MAC: mac1, Port: port1, Type: fdb.EntryTypeStatic, ClassID: fdb.Uint32Ptr(7)}
	require.NoError(t, f.mgr.AddMac(tagged))
	before := f.entry(t, intfA, mac1)

	untagged := tagged
	untagged.ClassID = nil
	require.NoError(t, f.mgr.ChangeMac(tagged, untagged))

	e := f.entry(t, intfA, mac1)
	require.Same(t, before, e)
	require.Nil(t, e.Metadata())
	require.Nil(t, f.hwEntry(t, vlanA, mac1).Metadata)

	entries, err := f.mgr.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].ClassID)
}

type dependent struct {
	bound     []fdb.HardwareKey
	withdrawn int
}

func (d *dependent) OnAvailable(k fdb.HardwareKey) error {
	d.bound = append(d.bound, k)
	return nil
}

func (d *dependent) OnWithdrawn() error {
	d.withdrawn++
	return nil
}

func TestDependentsFollowEntryLifecycle(t *testing.T) {
	f := newFixture(t)
	key := fdb.Key{Interface: intfA, MAC: mac1}

	d := &dependent{}
	sub, err := f.deps.FdbEntries.Subscribe(key, d)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.Empty(t, d.bound)

	f.addBridgePorts(t, port1)
	require.Equal(t, []fdb.HardwareKey{hwKey(vlanA, mac1)}, d.bound)

	require.NoError(t, f.mgr.RemoveEntry(intfA, mac1))
	require.Equal(t, 1, d.withdrawn)
}

func TestEntryGauges(t *testing.T) {
	f := newFixture(t)
	f.addBridgePorts(t, port1)

	require.NoError(t, f.mgr.AddEntry(port1, intfA, mac1, fdb.EntryTypeDynamic, nil))
	require.NoError(t, f.mgr.AddEntry(port2, intfA, mac2, fdb.EntryTypeDynamic, nil))

	assert.Equal(t, 2.0, metricValue(t, f.reg, "fdbd_fdb_entries_managed"))
	assert.Equal(t, 1.0, metricValue(t, f.reg, "fdbd_fdb_entries_bound"))
	assert.Equal(t, 1, f.mgr.BoundCount())

	require.NoError(t, f.bridge.RemoveBridgePort(port1))
	f.mgr.SyncMetrics()
	assert.Equal(t, 0.0, metricValue(t, f.reg, "fdbd_fdb_entries_bound"))
}

func learnAll(f *fixture, macs map[fdb.MacAddress]fdb.EntryType) {
	for mac, typ := range macs {
		f.dp.Learn(&southbound.FdbEntry{
			Key:        hwKey(vlanA, mac),
			BridgePort: 1,
			Handle:     11,
			Type:       typ,
		})
	}
}
