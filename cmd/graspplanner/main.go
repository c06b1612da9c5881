// Package main is the grasp planner server and its command line client.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/graspplanner/config"
	"go.viam.com/graspplanner/logging"
)

const (
	// Flags.
	flagConfig       = "config"
	flagEnvFile      = "env-file"
	flagSimOnly      = "sim-only"
	flagMockObserver = "mock-observer"
	flagTrials       = "trials"
	flagGripper      = "gripper"
	flagBindAddress  = "bind-address"
	flagDebug        = "debug"
	flagLogFile      = "log-file"

	queryFlagServer         = "server"
	queryFlagRequest        = "request"
	queryFlagSetup          = "setup"
	queryFlagPlanningDomain = "planning-domain"
	queryFlagPickup         = "pickup"
	queryFlagDrop           = "drop"
	queryFlagGraspType      = "grasp-type"
	queryFlagToLoc          = "to-loc"
	queryFlagPosition       = "position"
	queryFlagRaised         = "raised"
	queryFlagSafeConfig     = "safe-config"
	queryFlagRequestID      = "request-id"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE` (json or yaml)",
		},
		&cli.StringFlag{
			Name:  flagEnvFile,
			Usage: "load environment variables from `FILE` before reading the config",
		},
		&cli.BoolFlag{
			Name:  flagSimOnly,
			Usage: "run without hardware",
		},
		&cli.BoolFlag{
			Name:  flagMockObserver,
			Usage: "take bag poses from requests instead of a perception system",
		},
		&cli.IntFlag{
			Name:  flagTrials,
			Usage: "planning trials per request",
		},
		&cli.BoolFlag{
			Name:  flagGripper,
			Usage: "actuate the gripper during pick and drop",
		},
		&cli.StringFlag{
			Name:  flagBindAddress,
			Usage: "address to serve on",
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  flagLogFile,
			Usage: "also write logs to a size rotated `FILE`",
		},
	}
}

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "graspplanner",
		Usage:     "plan and execute grasps, transfers and pours of bags",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     serverFlags(),
		Action:    ServeAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve planning queries over HTTP until interrupted",
				Flags:  serverFlags(),
				Action: ServeAction,
			},
			{
				Name:      "query",
				Usage:     "send one planning query to a running server and print the response",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  queryFlagServer,
						Value: "http://" + config.DefaultBindAddress,
						Usage: "base URL of the server",
					},
					&cli.StringFlag{
						Name:  queryFlagRequest,
						Usage: "read the request from a JSON `FILE`; other request flags are ignored",
					},
					&cli.BoolFlag{
						Name:  queryFlagSetup,
						Usage: "set up the environment",
					},
					&cli.StringFlag{
						Name:  queryFlagPlanningDomain,
						Usage: "planning domain to activate",
					},
					&cli.StringFlag{
						Name:  queryFlagPickup,
						Usage: "id of the object to pick up",
					},
					&cli.StringFlag{
						Name:  queryFlagDrop,
						Usage: "id of the object to drop",
					},
					&cli.StringFlag{
						Name:  queryFlagGraspType,
						Usage: "grasp type: up, side, mode or none",
					},
					&cli.StringFlag{
						Name:  queryFlagToLoc,
						Usage: "location to transfer the held bag to",
					},
					&cli.Float64SliceFlag{
						Name:  queryFlagPosition,
						Usage: "manipulator position as x,y,z",
					},
					&cli.BoolFlag{
						Name:  queryFlagRaised,
						Usage: "go to the raised variant of the goal",
					},
					&cli.BoolFlag{
						Name:  queryFlagSafeConfig,
						Usage: "go to the safe joint configuration",
					},
					&cli.StringFlag{
						Name:  queryFlagRequestID,
						Usage: "request id to send",
					},
					&cli.BoolFlag{
						Name:  flagDebug,
						Usage: "enable debug logging",
					},
				},
				Action: QueryAction,
			},
			{
				Name:      "session",
				Usage:     "print the session state and collision objects of a running server",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  queryFlagServer,
						Value: "http://" + config.DefaultBindAddress,
						Usage: "base URL of the server",
					},
				},
				Action: SessionAction,
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of the config file",
				Action: func(c *cli.Context) error {
					return printJSON(c.App.Writer, config.Schema())
				},
			},
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
