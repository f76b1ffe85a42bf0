// Package cli contains the pcindex command line tool, which indexes a point cloud file and runs
// queries against it.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig    = "config"
	generalFlagDebug     = "debug"
	generalFlagFile      = "file"
	generalFlagThreshold = "threshold"
	generalFlagMaxDepth  = "max-depth"
	generalFlagPadding   = "padding"

	queryFlagPoint     = "point"
	queryFlagIndex     = "index"
	queryFlagDirection = "direction"
	queryFlagNear      = "near"
	queryFlagFar       = "far"
	queryFlagRadius    = "radius"
	queryFlagK         = "k"
	queryFlagMinPoints = "min-points"
	queryFlagFarthest  = "farthest"
	queryFlagQueries   = "queries"
	queryFlagWorkers   = "workers"
)

func newPointFlag() cli.Flag {
	return &cli.Float64SliceFlag{
		Name:  queryFlagPoint,
		Usage: "query point as `X,Y,Z`",
	}
}

// NewApp returns the pcindex app writing its output to out and its warnings to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "pcindex",
		Usage:           "index point cloud files and query them",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:    generalFlagFile,
				Aliases: []string{"f"},
				Usage:   "point cloud `FILE` (.pcd or .las), overrides the config",
			},
			&cli.IntFlag{
				Name:  generalFlagThreshold,
				Usage: "most points a node may hold before it is subdivided, overrides the config",
			},
			&cli.IntFlag{
				Name:  generalFlagMaxDepth,
				Usage: "deepest level of the octree, overrides the config",
			},
			&cli.Float64Flag{
				Name:  generalFlagPadding,
				Usage: "grow the root cube by this much beyond the points, overrides the config",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "build the index and print its shape",
				Action: StatsAction,
			},
			{
				Name:  "ray",
				Usage: "list the points picked by a ray",
				Flags: []cli.Flag{
					&cli.Float64SliceFlag{
						Name:     queryFlagPoint,
						Usage:    "ray source as `X,Y,Z`",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:     queryFlagDirection,
						Usage:    "ray direction as `X,Y,Z`",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  queryFlagNear,
						Usage: "nearest distance along the ray to pick at",
					},
					&cli.Float64Flag{
						Name:  queryFlagFar,
						Usage: "farthest distance along the ray to pick at",
						Value: 1000,
					},
					&cli.Float64Flag{
						Name:  queryFlagRadius,
						Usage: "pick radius around the ray",
						Value: 0.05,
					},
				},
				Action: RayAction,
			},
			{
				Name:  "knn",
				Usage: "list the nearest neighbours of a point",
				Flags: []cli.Flag{
					newPointFlag(),
					&cli.IntFlag{
						Name:  queryFlagIndex,
						Usage: "query the neighbours of the point at this index instead of --point",
						Value: -1,
					},
					&cli.IntFlag{
						Name:  queryFlagK,
						Usage: "number of neighbours",
						Value: 8,
					},
				},
				Action: KNNAction,
			},
			{
				Name:  "closest",
				Usage: "find the cube and point closest to (or farthest from) a point",
				Flags: []cli.Flag{
					newPointFlag(),
					&cli.IntFlag{
						Name:  queryFlagMinPoints,
						Usage: "skip cubes holding fewer points while descending",
					},
					&cli.BoolFlag{
						Name:  queryFlagFarthest,
						Usage: "search for the farthest cube and point instead",
					},
				},
				Action: ClosestAction,
			},
			{
				Name:  "bench",
				Usage: "run concurrent nearest neighbour queries and report their latency",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  queryFlagQueries,
						Usage: "number of queries",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  queryFlagWorkers,
						Usage: "number of concurrent workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  queryFlagK,
						Usage: "number of neighbours per query",
						Value: 8,
					},
				},
				Action: BenchAction,
			},
		},
	}
}
