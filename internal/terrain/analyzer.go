// Package terrain bundles one dataset with the route finder and viewshed
// engine built from it.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/terrain/internal/geo"
	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/pathfind"
	"github.com/OCAP2/terrain/internal/viewshed"
	"github.com/OCAP2/terrain/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/terrain/internal/terrain"

// Operation names used in logs, metrics and measurements.
const (
	OpRoute    = "route"
	OpViewshed = "viewshed"
	OpLOS      = "los"
)

// Measurement describes one completed query.
type Measurement struct {
	Dataset  string
	Op       string
	Time     time.Time
	Duration time.Duration
	// Points is the path length for routes and the visible cell count for
	// viewsheds.
	Points int
	Err    error
}

// Recorder receives a Measurement after every query.
type Recorder interface {
	Record(ctx context.Context, m Measurement) error
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithRecorder forwards measurements to r.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		a.recorder = r
	}
}

// WithMeter overrides the global OTel meter.
func WithMeter(m metric.Meter) Option {
	return func(a *Analyzer) {
		a.meter = m
	}
}

// Analyzer is the immutable context for one dataset. Everything is built in
// New; afterwards it is safe for concurrent use.
type Analyzer struct {
	name   string
	grid   *grid.Grid
	tr     *geo.Transformer
	graph  *pathfind.Graph
	finder *pathfind.Finder
	engine *viewshed.Engine

	logger   *slog.Logger
	recorder Recorder
	meter    metric.Meter

	routeRequests    metric.Int64Counter
	routeFailures    metric.Int64Counter
	viewshedRequests metric.Int64Counter
	viewshedFailures metric.Int64Counter
	duration         metric.Float64Histogram
}

// New builds the transformer, path graph and viewshed engine for g.
func New(name string, g *grid.Grid, proj geo.Projection, opts ...Option) (*Analyzer, error) {
	if g == nil {
		return nil, fmt.Errorf("nil grid: %w", core.ErrInvalidArgument)
	}
	tr, err := geo.NewTransformer(proj, g.Origin(), g.Resolution(), g.Height())
	if err != nil {
		return nil, fmt.Errorf("creating transformer: %w", err)
	}

	a := &Analyzer{
		name:   name,
		grid:   g,
		tr:     tr,
		logger: slog.Default(),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("dataset", name)

	if err := a.initMetrics(); err != nil {
		return nil, err
	}

	start := time.Now()
	a.graph = pathfind.BuildGraph(g)
	a.finder = pathfind.NewFinder(a.graph, tr)
	a.engine = viewshed.NewEngine(g, tr)

	a.logger.Info("dataset ready",
		"width", g.Width(),
		"height", g.Height(),
		"resolution", g.Resolution(),
		"epsg", proj.EPSG(),
		"nodes", a.graph.Nodes(),
		"components", a.graph.Components(),
		"duration", time.Since(start))
	return a, nil
}

func (a *Analyzer) initMetrics() error {
	var err error
	a.routeRequests, err = a.meter.Int64Counter(
		"terrain.route.requests",
		metric.WithDescription("Total route queries"),
	)
	if err != nil {
		return fmt.Errorf("creating route requests counter: %w", err)
	}

	a.routeFailures, err = a.meter.Int64Counter(
		"terrain.route.failures",
		metric.WithDescription("Route queries that returned an error"),
	)
	if err != nil {
		return fmt.Errorf("creating route failures counter: %w", err)
	}

	a.viewshedRequests, err = a.meter.Int64Counter(
		"terrain.viewshed.requests",
		metric.WithDescription("Total viewshed and line-of-sight queries"),
	)
	if err != nil {
		return fmt.Errorf("creating viewshed requests counter: %w", err)
	}

	a.viewshedFailures, err = a.meter.Int64Counter(
		"terrain.viewshed.failures",
		metric.WithDescription("Viewshed and line-of-sight queries that returned an error"),
	)
	if err != nil {
		return fmt.Errorf("creating viewshed failures counter: %w", err)
	}

	a.duration, err = a.meter.Float64Histogram(
		"terrain.query.duration",
		metric.WithDescription("Query duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}
	return nil
}

// Name returns the dataset name.
func (a *Analyzer) Name() string { return a.name }

// Grid returns the underlying grid.
func (a *Analyzer) Grid() *grid.Grid { return a.grid }

// Transformer returns the coordinate transformer of the dataset.
func (a *Analyzer) Transformer() *geo.Transformer { return a.tr }

// Graph returns the path graph of the dataset.
func (a *Analyzer) Graph() *pathfind.Graph { return a.graph }

// FindRoute returns the walkable route through all waypoints.
func (a *Analyzer) FindRoute(waypoints []core.GeoCoord) (core.Path, error) {
	start := time.Now()
	path, err := a.finder.FindRoute(waypoints)
	a.observe(OpRoute, start, len(path), err, "waypoints", len(waypoints))
	return path, err
}

// FindPath returns the walkable path between two points.
func (a *Analyzer) FindPath(from, to core.GeoCoord) (core.Path, error) {
	start := time.Now()
	path, err := a.finder.FindPath(from, to)
	a.observe(OpRoute, start, len(path), err, "waypoints", 2)
	return path, err
}

// ComputeViewshed returns the cells visible from observer.
func (a *Analyzer) ComputeViewshed(observer core.GeoCoord, radius, observerHeight, targetHeight float64) (core.ViewshedResult, error) {
	start := time.Now()
	res, err := a.engine.Compute(observer, radius, observerHeight, targetHeight)
	a.observe(OpViewshed, start, len(res.Cells), err, "radius", radius)
	return res, err
}

// Visible reports whether target can be seen from observer.
func (a *Analyzer) Visible(observer, target core.GeoCoord, observerHeight, targetHeight float64) (bool, error) {
	start := time.Now()
	ok, err := a.engine.Visible(observer, target, observerHeight, targetHeight)
	points := 0
	if ok {
		points = 1
	}
	a.observe(OpLOS, start, points, err)
	return ok, err
}

func (a *Analyzer) observe(op string, start time.Time, points int, err error, kv ...any) {
	ctx := context.Background()
	elapsed := time.Since(start)
	attrs := metric.WithAttributes(
		attribute.String("dataset", a.name),
		attribute.String("op", op),
	)

	requests, failures := a.viewshedRequests, a.viewshedFailures
	if op == OpRoute {
		requests, failures = a.routeRequests, a.routeFailures
	}
	requests.Add(ctx, 1, attrs)
	a.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	args := append([]any{"op", op, "points", points, "duration", elapsed}, kv...)
	if err != nil {
		failures.Add(ctx, 1, attrs)
		args = append(args, "error", err)
		// no route and out of bounds are ordinary answers, not faults
		if errors.Is(err, core.ErrNoRoute) || errors.Is(err, core.ErrOutOfBounds) {
			a.logger.Debug("query rejected", args...)
		} else {
			a.logger.Warn("query failed", args...)
		}
	} else {
		a.logger.Debug("query complete", args...)
	}

	if a.recorder == nil {
		return
	}
	m := Measurement{
		Dataset:  a.name,
		Op:       op,
		Time:     start,
		Duration: elapsed,
		Points:   points,
		Err:      err,
	}
	if rerr := a.recorder.Record(ctx, m); rerr != nil {
		a.logger.Warn("recording measurement failed", "error", rerr)
	}
}
