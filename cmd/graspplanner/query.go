package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/services/graspplanning"
	"go.viam.com/graspplanner/spatialmath"
)

// QueryAction sends one planning query and prints the response. A response that did not succeed
// is printed too, and reported as an error.
func QueryAction(c *cli.Context) error {
	logger := logging.NewBlankLogger("query")
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("query")
	}
	req, err := requestFromFlags(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	if id := c.String(queryFlagRequestID); id != "" {
		ctx = graspplanning.WithRequestID(ctx, id)
	}
	client := graspplanning.NewClientFromURL(c.String(queryFlagServer), nil, logger)
	resp, err := client.PlanningQuery(ctx, req)
	if resp != nil {
		if printErr := printJSON(c.App.Writer, resp); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.Errorf("planning query failed: %s", resp.ErrorKind)
	}
	return nil
}

// SessionAction prints the session of a running server as tables.
func SessionAction(c *cli.Context) error {
	client := graspplanning.NewClientFromURL(c.String(queryFlagServer), nil, logging.NewBlankLogger("session"))
	snapshot, err := client.Session(c.Context)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, snapshot.String())
	return err
}

func requestFromFlags(c *cli.Context) (*graspplanning.Request, error) {
	var req graspplanning.Request
	if path := c.String(queryFlagRequest); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, errors.Wrapf(err, "cannot decode request in %q", path)
		}
		return &req, nil
	}

	req = graspplanning.Request{
		SetupEnvironment: c.Bool(queryFlagSetup),
		PlanningDomain:   c.String(queryFlagPlanningDomain),
		PickupObject:     c.String(queryFlagPickup),
		DropObject:       c.String(queryFlagDrop),
		GraspType:        graspplanning.GraspType(c.String(queryFlagGraspType)),
		ToLoc:            c.String(queryFlagToLoc),
		GoToRaised:       c.Bool(queryFlagRaised),
		SafeConfig:       c.Bool(queryFlagSafeConfig),
		ManipulatorPose:  spatialmath.NewZeroPose(),
	}
	if position := c.Float64Slice(queryFlagPosition); len(position) != 0 {
		if len(position) != 3 {
			return nil, errors.Errorf("--%s needs 3 values, got %d", queryFlagPosition, len(position))
		}
		req.ManipulatorPose = spatialmath.NewPoseFromPoint(r3.Vector{X: position[0], Y: position[1], Z: position[2]})
	}
	return &req, nil
}
