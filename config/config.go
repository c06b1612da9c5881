// Package config defines the startup configuration of the grasp planner and how it is read.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/docker/go-units"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/graspplanner/components/arm/sim"
	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/services/graspplanning"
	"go.viam.com/graspplanner/spatialmath"
	"go.viam.com/graspplanner/workspace"
)

// DefaultBindAddress is where the server listens when no address is configured.
const DefaultBindAddress = "localhost:8080"

// Config describes a grasp planner process.
type Config struct {
	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`

	BindAddress string `json:"bind_address,omitempty"`
	// SimOnly marks a run without hardware. The gripper is then left alone unless UseGripper is set.
	SimOnly bool `json:"sim_only"`
	// MockObserver means bag poses come from requests rather than a perception system.
	MockObserver bool `json:"mock_observer"`
	// UseGripper enables gripper actuation during pick and drop. It defaults to !SimOnly.
	UseGripper *bool `json:"use_gripper,omitempty"`
	Debug      bool  `json:"debug,omitempty"`
	// QueryRateLimit is the average number of planning queries admitted per second, in bursts of
	// up to QueryBurst. Zero admits every query.
	QueryRateLimit float64 `json:"query_rate_limit,omitempty"`
	QueryBurst     int     `json:"query_burst,omitempty"`

	Planner       PlannerConfig        `json:"planner"`
	Parameterizer ParameterizerConfig  `json:"time_parameterization"`
	Gripper       GripperConfig        `json:"gripper"`
	Log           LogConfig            `json:"log"`
	Workspace     []WorkspaceObject    `json:"workspace,omitempty"`
	Planning      graspplanning.Config `json:"planning"`
}

// PlannerConfig selects the motion planning backend.
type PlannerConfig struct {
	Name       string       `json:"name"`
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// ParameterizerConfig holds the unscaled limits of the trapezoidal time parameterization.
type ParameterizerConfig struct {
	MaxVelocity     float64 `json:"max_velocity,omitempty"`
	MaxAcceleration float64 `json:"max_acceleration,omitempty"`
}

// Cartesian limits of the Panda.
const (
	defaultMaxVelocity     = 1.7
	defaultMaxAcceleration = 13
)

// Limits returns the configured limits, defaulted where unset.
func (pc ParameterizerConfig) Limits() (maxVelocity, maxAcceleration float64) {
	maxVelocity, maxAcceleration = pc.MaxVelocity, pc.MaxAcceleration
	if maxVelocity == 0 {
		maxVelocity = defaultMaxVelocity
	}
	if maxAcceleration == 0 {
		maxAcceleration = defaultMaxAcceleration
	}
	return maxVelocity, maxAcceleration
}

// GripperConfig configures the simulated gripper.
type GripperConfig struct {
	LatencyMs int `json:"latency_ms,omitempty"`
}

// Latency returns how long the simulated fingers take to reach a goal.
func (gc GripperConfig) Latency() time.Duration {
	return time.Duration(gc.LatencyMs) * time.Millisecond
}

// LogConfig configures where logs go besides stdout.
type LogConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
	// MaxSize is the size the file is rotated at, such as "50MiB". Sizes are rounded up to whole
	// mebibytes.
	MaxSize    string `json:"max_size,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty"`
}

// FileAppenderOptions returns the rotation options of the log file.
func (lc LogConfig) FileAppenderOptions() (logging.FileAppenderOptions, error) {
	opts := logging.FileAppenderOptions{
		MaxBackups: lc.MaxBackups,
		MaxAgeDays: lc.MaxAgeDays,
		Compress:   lc.Compress,
	}
	if lc.MaxSize == "" {
		return opts, nil
	}
	size, err := units.RAMInBytes(lc.MaxSize)
	if err != nil {
		return opts, errors.Wrap(err, "invalid log.max_size")
	}
	if size <= 0 {
		return opts, errors.Errorf("log.max_size must be positive, got %q", lc.MaxSize)
	}
	opts.MaxSizeMB = int((size + units.MiB - 1) / units.MiB)
	return opts, nil
}

// WorkspaceObject is a collision object present from startup.
type WorkspaceObject struct {
	ID     string                `json:"id"`
	Box    spatialmath.BoxConfig `json:"box"`
	Domain string                `json:"domain"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	var errs error
	if c.Planner.Name == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "planner.name"))
	} else if validate, ok := plannerAttributeValidators[c.Planner.Name]; !ok {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown planner %q", c.Planner.Name)))
	} else if err := validate(c.Planner.Attributes); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".planner.attributes", err))
	}
	if c.Parameterizer.MaxVelocity < 0 || c.Parameterizer.MaxAcceleration < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("time_parameterization limits must be non-negative")))
	}
	if c.Gripper.LatencyMs < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("gripper.latency_ms must be non-negative")))
	}
	if c.Log.Level != "" {
		if _, err := logging.LevelFromString(c.Log.Level); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
		}
	}
	if _, err := c.Log.FileAppenderOptions(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if c.QueryRateLimit < 0 || c.QueryBurst < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("query_rate_limit and query_burst must be non-negative")))
	}
	seen := make(map[string]bool, len(c.Workspace))
	for i, obj := range c.Workspace {
		objPath := fmt.Sprintf("%s.workspace.%d", path, i)
		switch {
		case obj.ID == "":
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(objPath, "id"))
		case seen[obj.ID]:
			errs = multierr.Append(errs, utils.NewConfigValidationError(objPath, errors.Errorf("duplicate id %q", obj.ID)))
		}
		seen[obj.ID] = true
		if obj.Domain == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(objPath, "domain"))
		}
		if _, err := obj.Box.ParseConfig(); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(objPath, err))
		}
	}
	planning := c.Planning.WithDefaults()
	return multierr.Append(errs, planning.Validate(path+".planning"))
}

// WorkspaceEntries converts the workspace objects for the domain registry.
func (c *Config) WorkspaceEntries() ([]workspace.Entry, error) {
	entries := make([]workspace.Entry, 0, len(c.Workspace))
	for _, obj := range c.Workspace {
		box, err := obj.Box.ParseConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "workspace object %q", obj.ID)
		}
		if box.Label() == "" {
			box.SetLabel(obj.ID)
		}
		entries = append(entries, workspace.Entry{
			Object: workspace.CollisionObject{ID: obj.ID, Geometry: box},
			Label:  obj.Domain,
		})
	}
	return entries, nil
}

// GripperEnabled reports whether the gripper is actuated.
func (c *Config) GripperEnabled() bool {
	if c.UseGripper == nil {
		return !c.SimOnly
	}
	return *c.UseGripper
}

// Address returns the configured bind address or the default one.
func (c *Config) Address() string {
	if c.BindAddress == "" {
		return DefaultBindAddress
	}
	return c.BindAddress
}

// SimPlanner is the name of the simulated planning backend.
const SimPlanner = "sim"

// plannerAttributeValidators check the attributes of each known planner.
var plannerAttributeValidators = map[string]func(AttributeMap) error{
	SimPlanner: func(attributes AttributeMap) error {
		conf, err := TransformAttributeMap[*sim.Config](attributes)
		if err != nil {
			return err
		}
		return conf.Validate("planner.attributes")
	},
}

// AttributeMap is a loosely typed set of attributes decoded later into a component's own config.
type AttributeMap map[string]interface{}

// TransformAttributeMap decodes attributes into a T using its json tags. Unknown attributes are
// an error.
func TransformAttributeMap[T any](attributes AttributeMap) (T, error) {
	var out T

	var forResult interface{}
	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   forResult,
		Metadata: &md,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, err
	}
	if len(md.Unused) != 0 {
		return out, errors.Errorf("unknown attributes %v", md.Unused)
	}
	return out, nil
}
