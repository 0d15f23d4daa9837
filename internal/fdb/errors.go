package fdb

import "errors"

var (
	// ErrUnknownInterface is returned when an interface has no router
	// interface to derive a VLAN from.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrMissingIntent is returned by ChangeEntry for a key the manager does
	// not hold.
	ErrMissingIntent = errors.New("no forwarding entry for key")

	// ErrAgingRace is returned by an in-place update whose hardware object was
	// removed by the dataplane.
	ErrAgingRace = errors.New("hardware entry aged out")

	// ErrInvariantViolation marks a static entry that vanished from hardware.
	ErrInvariantViolation = errors.New("fdb invariant violation")

	// ErrIndexCorruption marks an inconsistency between the manager indices
	// or between a bound entry and the topology.
	ErrIndexCorruption = errors.New("fdb index corruption")

	ErrNotBound    = errors.New("forwarding entry not bound")
	ErrMacMismatch = errors.New("old and new entries have different MACs")
)
