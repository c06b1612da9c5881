package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/graspplanner/components/arm/sim"
	"go.viam.com/graspplanner/components/gripper"
	fakegripper "go.viam.com/graspplanner/components/gripper/fake"
	"go.viam.com/graspplanner/config"
	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/services/graspplanning"
	"go.viam.com/graspplanner/services/graspplanning/builtin"
	fakescene "go.viam.com/graspplanner/workspace/fake"
)

// ServeAction runs the grasp planning server until interrupted.
func ServeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closer != nil {
			if err := closer.Close(); err != nil {
				logger.Errorw("error closing log file", "error", err)
			}
		}
	}()
	logging.ReplaceGlobal(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := graspplanning.NewMetrics(reg)

	svc, err := newService(ctx, cfg, clock.New(), metrics, logger)
	if err != nil {
		return err
	}
	server := graspplanning.NewServer(svc, metrics, reg, logger.Sublogger("server"),
		graspplanning.WithRateLimit(cfg.QueryRateLimit, cfg.QueryBurst))
	serveErr := server.ListenAndServe(ctx, cfg.Address())
	logger.Info("shutting down")
	return multierr.Combine(serveErr, server.Close(context.Background()), logger.Sync())
}

// loadConfig reads the config file, if any, and applies the command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if envFile := c.String(flagEnvFile); envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	startup := logging.NewLogger("config")

	var cfg *config.Config
	var err error
	if path := c.String(flagConfig); path != "" {
		cfg, err = config.Read(path, startup)
	} else {
		cfg, err = config.FromReader("", config.FormatJSON, strings.NewReader("{}"), startup)
	}
	if err != nil {
		return nil, err
	}

	if c.IsSet(flagSimOnly) {
		cfg.SimOnly = c.Bool(flagSimOnly)
	}
	if c.IsSet(flagMockObserver) {
		cfg.MockObserver = c.Bool(flagMockObserver)
	}
	if c.IsSet(flagTrials) {
		cfg.Planning.Trials = c.Int(flagTrials)
	}
	if c.IsSet(flagGripper) {
		useGripper := c.Bool(flagGripper)
		cfg.UseGripper = &useGripper
	}
	if c.IsSet(flagBindAddress) {
		cfg.BindAddress = c.String(flagBindAddress)
	}
	if c.Bool(flagDebug) {
		cfg.Debug = true
	}
	if c.IsSet(flagLogFile) {
		cfg.Log.File = c.String(flagLogFile)
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the process logger. The returned closer, if any, closes the log file.
func newLogger(cfg *config.Config) (logging.Logger, io.Closer, error) {
	logger := logging.NewLogger("graspplanner")
	switch {
	case cfg.Debug:
		logger.SetLevel(logging.DEBUG)
	case cfg.Log.Level != "":
		level, err := logging.LevelFromString(cfg.Log.Level)
		if err != nil {
			return nil, nil, err
		}
		logger.SetLevel(level)
	}
	if cfg.Log.File == "" {
		return logger, nil, nil
	}
	opts, err := cfg.Log.FileAppenderOptions()
	if err != nil {
		return nil, nil, err
	}
	appender, closer := logging.NewFileAppender(cfg.Log.File, opts)
	logger.AddAppender(appender)
	return logger, closer, nil
}

// newService builds the collaborators named by cfg and the grasp planning service driving them.
func newService(
	ctx context.Context,
	cfg *config.Config,
	clk clock.Clock,
	metrics *graspplanning.Metrics,
	logger logging.Logger,
) (graspplanning.Service, error) {
	if cfg.Planner.Name != config.SimPlanner {
		return nil, errors.Errorf("planner %q is not available in this build", cfg.Planner.Name)
	}
	arm, err := sim.NewArm(cfg.Planner.Attributes, clk, logger.Sublogger("arm"))
	if err != nil {
		return nil, err
	}
	parameterizer, err := motionplan.NewTrapezoidalParameterizer(cfg.Parameterizer.Limits())
	if err != nil {
		return nil, err
	}
	var g gripper.Gripper
	if cfg.GripperEnabled() {
		g = fakegripper.NewGripper(clk, cfg.Gripper.Latency(), logger.Sublogger("gripper"))
	}
	entries, err := cfg.WorkspaceEntries()
	if err != nil {
		return nil, err
	}
	logger.Infow("starting grasp planning service",
		"planner", cfg.Planner.Name,
		"sim_only", cfg.SimOnly,
		"mock_observer", cfg.MockObserver,
		"gripper", g != nil,
		"trials", cfg.Planning.Trials,
		"workspace_objects", len(entries),
	)
	return builtin.NewBuiltIn(ctx,
		builtin.Collaborators{
			Planner:       arm,
			Executor:      arm,
			Parameterizer: parameterizer,
			Scene:         fakescene.NewScene(logger.Sublogger("scene")),
			Gripper:       g,
		},
		builtin.Options{
			Config:       cfg.Planning,
			Workspace:    entries,
			MockObserver: cfg.MockObserver,
			Clock:        clk,
			Metrics:      metrics,
		},
		logger.Sublogger("graspplanning"),
	)
}
