package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OCAP2/terrain/internal/config"
	"github.com/OCAP2/terrain/internal/dispatcher"
	"github.com/OCAP2/terrain/internal/geo"
	"github.com/OCAP2/terrain/internal/handlers"
	"github.com/spf13/pflag"
)

var errHelp = errors.New("help requested")

// boundFlags maps viper keys to the global flags that override them.
var boundFlags = map[string]string{
	"dataset.default": "dataset",
	"storage.type":    "storage",
	"logLevel":        "log-level",
}

type command struct {
	name  string
	usage string
	setup func(fs *pflag.FlagSet)
	event func(fs *pflag.FlagSet) (dispatcher.Event, error)
}

var commands = []command{
	{
		name:  "route",
		usage: "route -p lon,lat -p lon,lat [-p lon,lat ...]",
		setup: func(fs *pflag.FlagSet) {
			fs.StringArrayP("point", "p", nil, "waypoint as lon,lat (repeat, in order)")
		},
		event: routeEvent,
	},
	{
		name:  "viewshed",
		usage: "viewshed -o lon,lat [--radius m] [--observer-height m] [--target-height m]",
		setup: func(fs *pflag.FlagSet) {
			fs.StringP("observer", "o", "", "observer position as lon,lat")
			fs.Float64("radius", 0, "radius in metres (default from config)")
			addHeightFlags(fs)
		},
		event: viewshedEvent,
	},
	{
		name:  "los",
		usage: "los -o lon,lat -t lon,lat [--observer-height m] [--target-height m]",
		setup: func(fs *pflag.FlagSet) {
			fs.StringP("observer", "o", "", "observer position as lon,lat")
			fs.StringP("target", "t", "", "target position as lon,lat")
			addHeightFlags(fs)
		},
		event: losEvent,
	},
	{
		name:  "datasets",
		usage: "datasets",
		event: func(*pflag.FlagSet) (dispatcher.Event, error) {
			return dispatcher.Event{Command: handlers.CmdDatasets}, nil
		},
	},
	{
		name:  "status",
		usage: "status [-d dataset]",
		event: func(*pflag.FlagSet) (dispatcher.Event, error) {
			return dispatcher.Event{Command: handlers.CmdStatus}, nil
		},
	},
	{
		name:  "import",
		usage: "import <name> <file.asc> [--epsg code]",
		setup: func(fs *pflag.FlagSet) {
			fs.Int("epsg", 0, "EPSG code of the raster (default from config)")
		},
		event: importEvent,
	},
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", ".", "directory containing "+config.FileName)
	fs.StringP("dataset", "d", "", "dataset name (default from config)")
	fs.String("storage", "", "dataset source: file, sqlite, postgres or memory")
	fs.String("log-level", "", "log level: debug, info, warn or error")
}

func addHeightFlags(fs *pflag.FlagSet) {
	fs.Float64("observer-height", 0, "observer height above ground (default from config)")
	fs.Float64("target-height", 0, "target height above ground (default from config)")
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n\nUsage:\n", AppName, CurrentVersion)
	for _, c := range commands {
		fmt.Fprintf(w, "  %s %s\n", AppName, c.usage)
	}
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	addGlobalFlags(fs)
	fmt.Fprintf(w, "\nGlobal flags:\n%s", fs.FlagUsages())
}

func parseCommandLine(args []string, stderr io.Writer) (command, *pflag.FlagSet, error) {
	if len(args) == 0 {
		printUsage(stderr)
		return command{}, nil, fmt.Errorf("no command given")
	}

	name := strings.ToLower(args[0])
	switch name {
	case "help", "-h", "--help":
		printUsage(stderr)
		return command{}, nil, errHelp
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
		fs.SetOutput(stderr)
		fs.Usage = func() {
			fmt.Fprintf(stderr, "Usage: %s %s\n%s", AppName, c.usage, fs.FlagUsages())
		}
		addGlobalFlags(fs)
		if c.setup != nil {
			c.setup(fs)
		}
		if err := fs.Parse(args[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return command{}, nil, errHelp
			}
			return command{}, nil, err
		}
		return c, fs, nil
	}

	printUsage(stderr)
	return command{}, nil, fmt.Errorf("unknown command: %s", args[0])
}

// optionalFloat formats a float flag, or returns "" when it was not given so
// the handler falls back to the configured default.
func optionalFloat(fs *pflag.FlagSet, name string) string {
	if !fs.Changed(name) {
		return ""
	}
	v, _ := fs.GetFloat64(name)
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func requiredString(fs *pflag.FlagSet, name string) (string, error) {
	v, _ := fs.GetString(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return v, nil
}

func routeEvent(fs *pflag.FlagSet) (dispatcher.Event, error) {
	points, _ := fs.GetStringArray("point")
	if len(points) < 2 {
		return dispatcher.Event{}, fmt.Errorf("route needs at least two --point values, got %d", len(points))
	}

	coords := make([][2]float64, len(points))
	for i, p := range points {
		c, err := geo.CoordFromString(p)
		if err != nil {
			return dispatcher.Event{}, fmt.Errorf("point %d %q: %w", i, p, err)
		}
		coords[i] = [2]float64{c.Lon, c.Lat}
	}
	polyline, err := json.Marshal(coords)
	if err != nil {
		return dispatcher.Event{}, err
	}

	return dispatcher.Event{
		Command: handlers.CmdRoute,
		Args:    []string{"", string(polyline)},
	}, nil
}

func viewshedEvent(fs *pflag.FlagSet) (dispatcher.Event, error) {
	observer, err := requiredString(fs, "observer")
	if err != nil {
		return dispatcher.Event{}, err
	}
	return dispatcher.Event{
		Command: handlers.CmdViewshed,
		Args: []string{
			"",
			observer,
			optionalFloat(fs, "radius"),
			optionalFloat(fs, "observer-height"),
			optionalFloat(fs, "target-height"),
		},
	}, nil
}

func losEvent(fs *pflag.FlagSet) (dispatcher.Event, error) {
	observer, err := requiredString(fs, "observer")
	if err != nil {
		return dispatcher.Event{}, err
	}
	target, err := requiredString(fs, "target")
	if err != nil {
		return dispatcher.Event{}, err
	}
	return dispatcher.Event{
		Command: handlers.CmdLOS,
		Args: []string{
			"",
			observer,
			target,
			optionalFloat(fs, "observer-height"),
			optionalFloat(fs, "target-height"),
		},
	}, nil
}

func importEvent(fs *pflag.FlagSet) (dispatcher.Event, error) {
	if fs.NArg() != 2 {
		return dispatcher.Event{}, fmt.Errorf("import expects <name> <file.asc>, got %d arguments", fs.NArg())
	}
	epsg := ""
	if fs.Changed("epsg") {
		v, _ := fs.GetInt("epsg")
		epsg = strconv.Itoa(v)
	}
	return dispatcher.Event{
		Command: handlers.CmdImport,
		Args:    []string{fs.Arg(0), fs.Arg(1), epsg},
	}, nil
}
