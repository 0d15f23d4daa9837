package system

import "time"

const (
	LearningModeHardware = "hardware"
	LearningModeSoftware = "software"

	DefaultWarmbootHoldTime = 60 * time.Second
)

type SwitchConfig struct {
	ID             uint32 `json:"id" yaml:"id"`
	L2LearningMode string `json:"l2_learning_mode,omitempty" yaml:"l2_learning_mode,omitempty"`
	// WarmbootHoldTime is how long unclaimed rediscovered entries are kept
	// before being deleted from the dataplane.
	WarmbootHoldTime time.Duration `json:"warmboot_hold_time,omitempty" yaml:"warmboot_hold_time,omitempty"`
}
