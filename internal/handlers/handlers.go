package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/OCAP2/terrain/internal/cache"
	"github.com/OCAP2/terrain/internal/config"
	"github.com/OCAP2/terrain/internal/dispatcher"
	"github.com/OCAP2/terrain/internal/geo"
	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/storage"
	"github.com/OCAP2/terrain/internal/terrain"
	"github.com/OCAP2/terrain/internal/util"
	"github.com/OCAP2/terrain/pkg/core"
)

// Command names served by the Service.
const (
	CmdDatasets = ":DATASETS:"
	CmdImport   = ":IMPORT:"
	CmdRoute    = ":ROUTE:"
	CmdViewshed = ":VIEWSHED:"
	CmdLOS      = ":LOS:"
	CmdStatus   = ":STATUS:"
	CmdEvict    = ":EVICT:"
)

// ErrBadArguments is returned when a command's arguments cannot be parsed.
var ErrBadArguments = errors.New("bad arguments")

// ErrReadOnlySource is returned by :IMPORT: when the source cannot store datasets.
var ErrReadOnlySource = errors.New("dataset source is read-only")

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Source    storage.Source
	Analyzers *cache.AnalyzerCache
	Viewshed  config.ViewshedConfig
	// DefaultDataset is used when a command leaves the dataset empty.
	DefaultDataset string
	// DefaultEPSG applies to imports that do not name a code.
	DefaultEPSG int
	Logger      *slog.Logger
}

// Service provides handler methods for terrain commands
type Service struct {
	deps Dependencies
	log  *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{deps: deps, log: log}
}

// NewLoader returns a cache loader that reads datasets from src and builds
// an analyzer in the dataset's projection.
func NewLoader(src storage.Source, opts ...terrain.Option) cache.Loader {
	return func(name string) (*terrain.Analyzer, error) {
		d, err := src.LoadDataset(name)
		if err != nil {
			return nil, err
		}
		proj, err := geo.ProjectionFor(d.EPSG)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		return terrain.New(d.Name, d.Grid, proj, opts...)
	}
}

// RegisterHandlers registers every terrain command with d.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdDatasets, s.Datasets)
	d.Register(CmdImport, s.Import, dispatcher.Logged())
	d.Register(CmdRoute, s.Route, dispatcher.Logged())
	d.Register(CmdViewshed, s.Viewshed, dispatcher.Logged())
	d.Register(CmdLOS, s.LOS, dispatcher.Logged())
	d.Register(CmdStatus, s.Status)
	d.Register(CmdEvict, s.Evict, dispatcher.Logged())
}

func badArgs(command, format string, args ...any) error {
	return fmt.Errorf("%s %s: %w", command, fmt.Sprintf(format, args...), ErrBadArguments)
}

func (s *Service) analyzer(command, name string) (*terrain.Analyzer, error) {
	if name == "" {
		name = s.deps.DefaultDataset
	}
	if name == "" {
		return nil, badArgs(command, "no dataset given and no default configured")
	}
	a, err := s.deps.Analyzers.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return a, nil
}

// Datasets returns the dataset names as a JSON array.
// Args: none
func (s *Service) Datasets(e dispatcher.Event) (any, error) {
	names, err := s.deps.Source.ListDatasets()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdDatasets, err)
	}
	if names == nil {
		names = []string{}
	}
	out, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// Import reads an ESRI ASCII grid from disk and stores it in the source.
// Args: [name, path, epsg?]
func (s *Service) Import(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return nil, badArgs(CmdImport, "expects [name, path, epsg?]")
	}
	name, path := args[0], args[1]

	epsg := s.deps.DefaultEPSG
	if len(args) > 2 && args[2] != "" {
		v, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, badArgs(CmdImport, "epsg %q", args[2])
		}
		epsg = v
	}
	if _, err := geo.ProjectionFor(epsg); err != nil {
		return nil, fmt.Errorf("%s: %w", CmdImport, err)
	}

	importer, ok := s.deps.Source.(storage.Importer)
	if !ok {
		return nil, fmt.Errorf("%s: %w", CmdImport, ErrReadOnlySource)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdImport, err)
	}
	defer f.Close()

	g, err := grid.ReadESRIASCII(f)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", CmdImport, path, err)
	}
	if err := importer.SaveDataset(&storage.Dataset{Name: name, EPSG: epsg, Grid: g}); err != nil {
		return nil, fmt.Errorf("%s: %w", CmdImport, err)
	}
	s.deps.Analyzers.Evict(name)

	st := g.Stats()
	s.log.Info("dataset imported",
		"dataset", name,
		"epsg", epsg,
		"width", g.Width(),
		"height", g.Height(),
		"defined", st.Defined)
	return fmt.Sprintf("imported %s (%dx%d)", name, g.Width(), g.Height()), nil
}

// Route finds a path through all waypoints and returns a GeoJSON LineString.
// Args: [dataset, "[[lon,lat],...]"]
func (s *Service) Route(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) < 2 {
		return nil, badArgs(CmdRoute, "expects [dataset, waypoints]")
	}
	waypoints, err := geo.ParsePolyline(args[1])
	if err != nil {
		return nil, badArgs(CmdRoute, "waypoints: %v", err)
	}
	if len(waypoints) < 2 {
		return nil, badArgs(CmdRoute, "needs at least two waypoints, got %d", len(waypoints))
	}

	a, err := s.analyzer(CmdRoute, args[0])
	if err != nil {
		return nil, err
	}
	path, err := a.FindRoute(waypoints)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdRoute, err)
	}

	out, err := geo.PathToLineString(path).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// Viewshed returns the visible cells around an observer as a GeoJSON
// MultiPoint of cell anchors, without duplicates.
// Args: [dataset, "lon,lat", radius?, observerHeight?, targetHeight?]
func (s *Service) Viewshed(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) < 2 {
		return nil, badArgs(CmdViewshed, "expects [dataset, observer, radius?, observerHeight?, targetHeight?]")
	}
	observer, err := geo.CoordFromString(args[1])
	if err != nil {
		return nil, badArgs(CmdViewshed, "observer %q: %v", args[1], err)
	}
	vc := s.deps.Viewshed
	radius, err := util.OptionalFloat(args, 2, vc.Radius)
	if err != nil {
		return nil, badArgs(CmdViewshed, "radius: %v", err)
	}
	oh, err := util.OptionalFloat(args, 3, vc.ObserverHeight)
	if err != nil {
		return nil, badArgs(CmdViewshed, "observer height: %v", err)
	}
	th, err := util.OptionalFloat(args, 4, vc.TargetHeight)
	if err != nil {
		return nil, badArgs(CmdViewshed, "target height: %v", err)
	}
	if vc.MaxRadius > 0 && radius > vc.MaxRadius {
		return nil, badArgs(CmdViewshed, "radius %g exceeds the limit of %g", radius, vc.MaxRadius)
	}

	a, err := s.analyzer(CmdViewshed, args[0])
	if err != nil {
		return nil, err
	}
	res, err := a.ComputeViewshed(observer, radius, oh, th)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdViewshed, err)
	}

	cells := res.Unique()
	coords := make([]core.GeoCoord, 0, len(cells))
	for _, c := range cells {
		g, err := a.Transformer().GridToGeo(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", CmdViewshed, err)
		}
		coords = append(coords, g)
	}

	out, err := geo.CoordsToMultiPoint(coords).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// LOS reports whether target is visible from observer as "true" or "false".
// Args: [dataset, "lon,lat", "lon,lat", observerHeight?, targetHeight?]
func (s *Service) LOS(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) < 3 {
		return nil, badArgs(CmdLOS, "expects [dataset, observer, target, observerHeight?, targetHeight?]")
	}
	observer, err := geo.CoordFromString(args[1])
	if err != nil {
		return nil, badArgs(CmdLOS, "observer %q: %v", args[1], err)
	}
	target, err := geo.CoordFromString(args[2])
	if err != nil {
		return nil, badArgs(CmdLOS, "target %q: %v", args[2], err)
	}
	oh, err := util.OptionalFloat(args, 3, s.deps.Viewshed.ObserverHeight)
	if err != nil {
		return nil, badArgs(CmdLOS, "observer height: %v", err)
	}
	th, err := util.OptionalFloat(args, 4, s.deps.Viewshed.TargetHeight)
	if err != nil {
		return nil, badArgs(CmdLOS, "target height: %v", err)
	}

	a, err := s.analyzer(CmdLOS, args[0])
	if err != nil {
		return nil, err
	}
	ok, err := a.Visible(observer, target, oh, th)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdLOS, err)
	}
	return strconv.FormatBool(ok), nil
}

// LoadedDataset describes an analyzer held in the cache.
type LoadedDataset struct {
	Name       string  `json:"name"`
	EPSG       int     `json:"epsg"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution float64 `json:"resolution"`
	Nodes      int     `json:"nodes"`
	Components int     `json:"components"`
}

// Status is the JSON document returned by :STATUS:.
type Status struct {
	Loaded []LoadedDataset `json:"loaded"`
	Loads  int             `json:"loads"`
}

// Status reports the loaded analyzers and how many loads have run. The
// named dataset, or the default one, is loaded first.
// Args: [dataset?]
func (s *Service) Status(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	name := s.deps.DefaultDataset
	if len(args) > 0 && args[0] != "" {
		name = args[0]
	}
	if name != "" {
		if _, err := s.analyzer(CmdStatus, name); err != nil {
			return nil, err
		}
	}

	st := Status{Loaded: []LoadedDataset{}}
	for _, n := range s.deps.Analyzers.Names() {
		a, err := s.deps.Analyzers.Get(n)
		if err != nil {
			continue
		}
		g, gr := a.Grid(), a.Graph()
		st.Loaded = append(st.Loaded, LoadedDataset{
			Name:       a.Name(),
			EPSG:       a.Transformer().Projection().EPSG(),
			Width:      g.Width(),
			Height:     g.Height(),
			Resolution: g.Resolution(),
			Nodes:      gr.Nodes(),
			Components: gr.Components(),
		})
	}
	st.Loads = s.deps.Analyzers.Loads()

	out, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// Evict drops a cached analyzer so the next query reloads it from the
// source. Without a name every analyzer is dropped.
// Args: [dataset?]
func (s *Service) Evict(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	if len(args) == 0 || args[0] == "" {
		s.deps.Analyzers.Reset()
		return "evicted all", nil
	}
	s.deps.Analyzers.Evict(args[0])
	return "evicted " + args[0], nil
}
