package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/pcindex/config"
	"go.viam.com/pcindex/logging"
	"go.viam.com/pcindex/octree"
	"go.viam.com/pcindex/pointcloud"
	"go.viam.com/pcindex/spatialmath"
)

// index is a point buffer together with the octree built over it.
type index struct {
	logger logging.Logger
	cfg    *config.Config
	buf    *pointcloud.Buffer
	tree   *octree.Octree
}

// loadIndex reads the config, applies the command line overrides, loads the point cloud file
// and builds the octree over it.
func loadIndex(c *cli.Context) (*index, error) {
	cfg := config.Default()
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(generalFlagFile) {
		cfg.Input.File = c.String(generalFlagFile)
	}
	if c.IsSet(generalFlagThreshold) {
		cfg.Octree.Threshold = c.Int(generalFlagThreshold)
	}
	if c.IsSet(generalFlagMaxDepth) {
		cfg.Octree.MaxDepth = c.Int(generalFlagMaxDepth)
	}
	if c.IsSet(generalFlagPadding) {
		cfg.Input.Padding = c.Float64(generalFlagPadding)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Input.File == "" {
		return nil, errors.Errorf("no point cloud file given, use --%s or set input.file in the config", generalFlagFile)
	}

	level := cfg.Logging.Level
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	loggerConfig := logging.NewLoggerConfig()
	loggerConfig.OutputPaths = []string{"stderr"}
	logger := logging.NewLoggerFromConfig("pcindex", level, loggerConfig)

	buf, err := pointcloud.NewFromFile(cfg.Input.File, logger)
	if err != nil {
		return nil, err
	}
	if buf.Size() == 0 {
		warningf(c.App.ErrWriter, "%q holds no points", cfg.Input.File)
	}
	bounds, err := buf.MetaData().BoundingCube(cfg.Input.Padding)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot bound the points of %q, try a positive --%s", cfg.Input.File, generalFlagPadding)
	}
	tree, err := octree.New(cfg.Octree, logger.Sublogger("octree"))
	if err != nil {
		return nil, err
	}
	if err := tree.Build(buf.Positions.Indices(), buf.Positions, bounds); err != nil {
		return nil, err
	}
	return &index{logger: logger, cfg: cfg, buf: buf, tree: tree}, nil
}

func (idx *index) close() {
	utils.UncheckedErrorFunc(idx.logger.Sync)
}

// StatsAction builds the index and prints its shape.
func StatsAction(c *cli.Context) error {
	idx, err := loadIndex(c)
	if err != nil {
		return err
	}
	defer idx.close()

	stats := idx.tree.Stats()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRows([]table.Row{
		{"File", idx.cfg.Input.File},
		{"Points", stats.Points},
		{"Threshold", idx.tree.Threshold()},
		{"Max depth", idx.tree.MaxDepth()},
		{"Nodes", stats.Nodes},
		{"Leaves", stats.Leaves},
		{"Depth", stats.Depth},
		{"Points per leaf", fmt.Sprintf("%.2f ± %.2f", stats.MeanLeafPoints, stats.StdDevLeafPoints)},
		{"Leaves forced by max depth", stats.ForcedLeaves},
	})
	printf(c.App.Writer, "%s", t.Render())

	depths := table.NewWriter()
	depths.AppendHeader(table.Row{"Depth", "Leaves"})
	for depth, leaves := range stats.LeavesPerDepth {
		if leaves > 0 {
			depths.AppendRow(table.Row{depth, leaves})
		}
	}
	printf(c.App.Writer, "%s", depths.Render())
	return nil
}

// RayAction lists the points picked by a ray, nearest first.
func RayAction(c *cli.Context) error {
	source, err := vectorFlag(c, queryFlagPoint)
	if err != nil {
		return err
	}
	direction, err := vectorFlag(c, queryFlagDirection)
	if err != nil {
		return err
	}
	ray, err := spatialmath.NewRay(source, direction,
		c.Float64(queryFlagNear), c.Float64(queryFlagFar), c.Float64(queryFlagRadius))
	if err != nil {
		return err
	}

	idx, err := loadIndex(c)
	if err != nil {
		return err
	}
	defer idx.close()

	var opts []octree.RayIntersectOption
	if idx.buf.MetaData().HasColor {
		opts = append(opts, octree.WithColors(idx.buf.Colors))
	}
	hits, err := idx.tree.RayIntersect(ray, idx.buf.Positions, opts...)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Index", "Node", "Distance", "Position", "Color"})
	for i, hit := range hits {
		highlight := pointcloud.RampColor(rank(i, len(hits)))
		if hit.Color != nil {
			highlight = *hit.Color
		}
		t.AppendRow(table.Row{
			i, hit.Index, hit.LocationCode.String(),
			fmt.Sprintf("%.4f", hit.Distance), formatVector(hit.Position), formatColor(highlight),
		})
	}
	printf(c.App.Writer, "%d points picked", len(hits))
	if len(hits) > 0 {
		printf(c.App.Writer, "%s", t.Render())
	}
	return nil
}

// KNNAction lists the nearest neighbours of a point or of an indexed point.
func KNNAction(c *cli.Context) error {
	idx, err := loadIndex(c)
	if err != nil {
		return err
	}
	defer idx.close()

	positions := idx.buf.Positions
	k := c.Int(queryFlagK)
	var neighbours []int
	if i := c.Int(queryFlagIndex); i >= 0 {
		neighbours, err = idx.tree.KNearestNeighboursOfIndex(k, i, 0, positions, nil)
	} else {
		p, perr := vectorFlag(c, queryFlagPoint)
		if perr != nil {
			return perr
		}
		neighbours, err = idx.tree.KNearestNeighbours(k, p, 0, positions, nil)
	}
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Index", "Position", "Highlight"})
	for i, n := range neighbours {
		t.AppendRow(table.Row{
			i, n, formatVector(positions.At(n)), formatColor(pointcloud.RampColor(rank(i, len(neighbours)))),
		})
	}
	printf(c.App.Writer, "%d neighbours", len(neighbours))
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// ClosestAction finds the cube and the point closest to, or farthest from, a point.
func ClosestAction(c *cli.Context) error {
	p, err := vectorFlag(c, queryFlagPoint)
	if err != nil {
		return err
	}
	idx, err := loadIndex(c)
	if err != nil {
		return err
	}
	defer idx.close()

	boxQuery, pointQuery := idx.tree.ClosestBox, idx.tree.ClosestPoint
	if c.Bool(queryFlagFarthest) {
		boxQuery, pointQuery = idx.tree.FarthestBox, idx.tree.FarthestPoint
	}
	minPoints := c.Int(queryFlagMinPoints)
	box, err := boxQuery(p, minPoints, octree.Root)
	if err != nil {
		return err
	}
	code := octree.LocationCode(box.LocationCode())
	printf(c.App.Writer, "node %s: %s", code, box)

	hit, err := pointQuery(p, idx.buf.Positions, minPoints, code)
	if err != nil {
		return err
	}
	if hit == nil {
		printf(c.App.Writer, "node holds no points")
		return nil
	}
	printf(c.App.Writer, "point %d at %s, distance %.4f", hit.Index, formatVector(hit.Position), hit.Distance)
	return nil
}

// BenchAction runs nearest neighbour queries around indexed points on concurrent workers and
// reports their latency.
func BenchAction(c *cli.Context) error {
	queries := c.Int(queryFlagQueries)
	workers := c.Int(queryFlagWorkers)
	k := c.Int(queryFlagK)
	if queries < 1 || workers < 1 {
		return errors.Errorf("--%s and --%s must be positive", queryFlagQueries, queryFlagWorkers)
	}

	idx, err := loadIndex(c)
	if err != nil {
		return err
	}
	defer idx.close()

	positions := idx.buf.Positions
	n := positions.Len()
	if n == 0 {
		return errors.New("cannot benchmark an empty point cloud")
	}

	latencies := make([]float64, queries)
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(workers)
	start := time.Now()
	for i := 0; i < queries; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			queryStart := time.Now()
			_, err := idx.tree.KNearestNeighboursOfIndex(k, i%n, 0, positions, nil)
			latencies[i] = time.Since(queryStart).Seconds()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	slices.Sort(latencies)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Queries", "Workers", "K", "Total", "Mean", "P50", "P99", "Max"})
	t.AppendRow(table.Row{
		queries, workers, k, elapsed.Round(time.Microsecond),
		seconds(stat.Mean(latencies, nil)),
		seconds(stat.Quantile(0.5, stat.Empirical, latencies, nil)),
		seconds(stat.Quantile(0.99, stat.Empirical, latencies, nil)),
		seconds(latencies[len(latencies)-1]),
	})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond)
}
