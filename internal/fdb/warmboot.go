package fdb

import (
	"github.com/veesix-networks/fdbd/pkg/hwstore"
	"github.com/veesix-networks/fdbd/pkg/models/fdb"
)

// ReconcileWarmBoot releases the rediscovered dynamic objects no entry
// claimed, leaving them in the dataplane for its own aging to converge.
// Static objects are never released here. In software learning mode every
// dynamic entry is re-added by software, so there is nothing to do.
func (m *Manager) ReconcileWarmBoot() int {
	if m.learningMode == LearningModeSoftware {
		m.logger.Debug("Software learning, skipping warm boot reconciliation")
		return 0
	}

	released := m.env.store.RemoveUnclaimedWarmbootHandlesIf(func(obj *hwstore.Object) bool {
		return obj.Type() == fdb.EntryTypeDynamic
	})

	m.metrics.WarmbootReleased(released)
	m.logger.Info("Warm boot reconciliation done", "released_dynamic", released)
	return released
}

// PurgeWarmBoot deletes whatever rediscovered objects are still unclaimed
// once the warm boot hold time is over.
func (m *Manager) PurgeWarmBoot() (int, error) {
	purged, err := m.env.store.PurgeUnclaimed()
	m.metrics.WarmbootPurged(purged)
	if err != nil {
		m.metrics.HardwareError("purge")
	}
	return purged, err
}
