package graspplanning

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/graspplanner/components/gripper"
)

const (
	defaultTrials            = 2
	defaultBackoffMs         = 1000
	defaultSettleMs          = 1000
	defaultDwellMs           = 1000
	defaultPlanningTimeMs    = 5000
	defaultGripperWaitMs     = 5000
	defaultApproachDistance  = 0.3
	defaultWaypoints         = 3
	defaultEEFStep           = 0.1
	defaultScale             = 0.1
	defaultTiltDegs          = 60
	defaultTiltDrop          = 0.1
	defaultJitter            = 0.05
	defaultAttachLink        = "panda_link8"
	defaultGripperSpeed      = 0.1
	defaultGripperForce      = 50
	defaultGripperEpsilon    = 0.03
	defaultGripperWidthOpen  = 0.1
	defaultGripperWidthClose = 0.044
)

// DefaultSafeJoints is the joint space home the arm is sent to for a safe_config request.
var DefaultSafeJoints = []float64{0, -0.785398, 0, -2.35619, 1.5708, 0.785398}

// Config describes how the service turns requests into motions. Zero values are replaced by
// defaults.
type Config struct {
	Trials         int `json:"trials,omitempty"`
	BackoffMs      int `json:"backoff_ms,omitempty"`
	SettleMs       int `json:"settle_ms,omitempty"`
	DwellMs        int `json:"dwell_ms,omitempty"`
	PlanningTimeMs int `json:"planning_time_ms,omitempty"`
	GripperWaitMs  int `json:"gripper_wait_ms,omitempty"`

	Geometry          *Geometry `json:"geometry,omitempty"`
	ApproachDistance  float64   `json:"approach_distance,omitempty"`
	Waypoints         int       `json:"waypoints,omitempty"`
	EEFStep           float64   `json:"eef_step,omitempty"`
	JumpThreshold     float64   `json:"jump_threshold,omitempty"`
	VelocityScale     float64   `json:"velocity_scale,omitempty"`
	AccelerationScale float64   `json:"acceleration_scale,omitempty"`
	TiltDegs          float64   `json:"tilt_degs,omitempty"`
	TiltDrop          float64   `json:"tilt_drop,omitempty"`
	// Jitter is the largest X and Y perturbation of a goal at a depot.
	Jitter float64 `json:"jitter,omitempty"`

	AttachLink    string        `json:"attach_link,omitempty"`
	GripperClosed *gripper.Goal `json:"gripper_closed,omitempty"`
	GripperOpen   *gripper.Goal `json:"gripper_open,omitempty"`
	SafeJoints    []float64     `json:"safe_joints,omitempty"`
	Locations     Locations     `json:"locations,omitempty"`
}

// WithDefaults returns a copy of the config with every unset field defaulted.
func (conf Config) WithDefaults() Config {
	setInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setInt(&conf.Trials, defaultTrials)
	setInt(&conf.BackoffMs, defaultBackoffMs)
	setInt(&conf.SettleMs, defaultSettleMs)
	setInt(&conf.DwellMs, defaultDwellMs)
	setInt(&conf.PlanningTimeMs, defaultPlanningTimeMs)
	setInt(&conf.GripperWaitMs, defaultGripperWaitMs)
	setInt(&conf.Waypoints, defaultWaypoints)
	setFloat(&conf.ApproachDistance, defaultApproachDistance)
	setFloat(&conf.EEFStep, defaultEEFStep)
	setFloat(&conf.VelocityScale, defaultScale)
	setFloat(&conf.AccelerationScale, defaultScale)
	setFloat(&conf.TiltDegs, defaultTiltDegs)
	setFloat(&conf.TiltDrop, defaultTiltDrop)
	setFloat(&conf.Jitter, defaultJitter)
	if conf.Geometry == nil {
		geom := DefaultGeometry()
		conf.Geometry = &geom
	}
	if conf.AttachLink == "" {
		conf.AttachLink = defaultAttachLink
	}
	if conf.GripperClosed == nil {
		conf.GripperClosed = &gripper.Goal{
			Width: defaultGripperWidthClose, Speed: defaultGripperSpeed, Force: defaultGripperForce,
			EpsilonInner: defaultGripperEpsilon, EpsilonOuter: defaultGripperEpsilon,
		}
	}
	if conf.GripperOpen == nil {
		conf.GripperOpen = &gripper.Goal{
			Width: defaultGripperWidthOpen, Speed: defaultGripperSpeed, Force: defaultGripperForce,
			EpsilonInner: defaultGripperEpsilon, EpsilonOuter: defaultGripperEpsilon,
		}
	}
	if len(conf.SafeJoints) == 0 {
		conf.SafeJoints = append([]float64(nil), DefaultSafeJoints...)
	}
	if len(conf.Locations) == 0 {
		conf.Locations = DefaultLocations()
	}
	return conf
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	var errs error
	for name, v := range map[string]int{
		"trials": conf.Trials, "backoff_ms": conf.BackoffMs, "settle_ms": conf.SettleMs, "dwell_ms": conf.DwellMs,
		"planning_time_ms": conf.PlanningTimeMs, "gripper_wait_ms": conf.GripperWaitMs, "waypoints": conf.Waypoints,
	} {
		if v < 0 {
			errs = multierr.Append(errs, errors.Errorf("%s.%s: must be non-negative, got %d", path, name, v))
		}
	}
	if conf.Waypoints == 1 {
		errs = multierr.Append(errs, errors.Errorf("%s.waypoints: need at least 2", path))
	}
	if conf.VelocityScale < 0 || conf.VelocityScale > 1 || conf.AccelerationScale < 0 || conf.AccelerationScale > 1 {
		errs = multierr.Append(errs, errors.Errorf("%s: velocity_scale and acceleration_scale must be in [0, 1]", path))
	}
	if conf.ApproachDistance < 0 || conf.EEFStep < 0 || conf.TiltDrop < 0 || conf.Jitter < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: distances must be non-negative", path))
	}
	if conf.Geometry != nil {
		errs = multierr.Append(errs, conf.Geometry.Validate(path+".geometry"))
	}
	if conf.GripperClosed != nil {
		errs = multierr.Append(errs, errors.Wrapf(conf.GripperClosed.Validate(), "%s.gripper_closed", path))
	}
	if conf.GripperOpen != nil {
		errs = multierr.Append(errs, errors.Wrapf(conf.GripperOpen.Validate(), "%s.gripper_open", path))
	}
	return multierr.Append(errs, conf.Locations.Validate(path+".locations"))
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Backoff returns the time slept between trials.
func (conf *Config) Backoff() time.Duration { return millis(conf.BackoffMs) }

// Settle returns the time slept before each planner call.
func (conf *Config) Settle() time.Duration { return millis(conf.SettleMs) }

// Dwell returns the time waited after arriving at a location.
func (conf *Config) Dwell() time.Duration { return millis(conf.DwellMs) }

// PlanningTime returns the time allowed for each planner call.
func (conf *Config) PlanningTime() time.Duration { return millis(conf.PlanningTimeMs) }

// GripperWait returns the time allowed for each gripper motion.
func (conf *Config) GripperWait() time.Duration { return millis(conf.GripperWaitMs) }

// TiltAngle returns the pour roll in radians.
func (conf *Config) TiltAngle() float64 { return conf.TiltDegs * math.Pi / 180 }
