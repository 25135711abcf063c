package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/terrain/internal/cache"
	"github.com/OCAP2/terrain/internal/config"
	"github.com/OCAP2/terrain/internal/dispatcher"
	"github.com/OCAP2/terrain/internal/handlers"
	"github.com/OCAP2/terrain/internal/influx"
	"github.com/OCAP2/terrain/internal/logging"
	intOtel "github.com/OCAP2/terrain/internal/otel"
	"github.com/OCAP2/terrain/internal/terrain"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	AppName string = "terrain"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger = slog.Default()

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code.
// Command results go to stdout, logs to stderr and the log file.
func run(args []string, stdout, stderr io.Writer) int {
	cmd, fs, err := parseCommandLine(args, stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer viper.Reset()

	configErr := loadConfig(fs)

	cleanup := setupLogging(stderr)
	defer cleanup()

	if configErr != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		Logger.Debug("Loaded config", "file", viper.ConfigFileUsed())
	}
	Logger.Debug("Starting", "version", CurrentVersion, "build", BuildDate, "command", cmd.name)

	zl := logging.NewZerolog(stderr, viper.GetString("logLevel"))

	src, err := initStorage(zl)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer src.Close()

	recorder := initInflux(zl)
	if recorder != nil {
		defer recorder.Close()
	}

	analyzerOpts := []terrain.Option{terrain.WithLogger(Logger)}
	if recorder != nil {
		analyzerOpts = append(analyzerOpts, terrain.WithRecorder(recorder))
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zl))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer eventDispatcher.Close()

	dc := config.GetDatasetConfig()
	handlerService := handlers.NewService(handlers.Dependencies{
		Source:         src,
		Analyzers:      cache.NewAnalyzerCache(handlers.NewLoader(src, analyzerOpts...)),
		Viewshed:       config.GetViewshedConfig(),
		DefaultDataset: dc.Default,
		DefaultEPSG:    dc.EPSG,
		Logger:         Logger,
	})
	handlerService.RegisterHandlers(eventDispatcher)

	event, err := cmd.event(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	result, err := eventDispatcher.Dispatch(event)
	if err != nil {
		fmt.Fprintln(stderr, err)
		if errors.Is(err, handlers.ErrBadArguments) {
			return exitUsage
		}
		return exitError
	}
	fmt.Fprintln(stdout, result)
	return exitOK
}

// loadConfig reads the config file from the --config dir and lets the
// global flags override it. Defaults apply even when the file is missing.
func loadConfig(fs *pflag.FlagSet) error {
	dir, _ := fs.GetString("config")
	err := config.Load(dir)

	for key, flag := range boundFlags {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	return err
}

// setupLogging fans logs out to the console, the session log file and the
// optional Graylog and OTel sinks. The returned func flushes and closes them.
func setupLogging(console io.Writer) func() {
	SlogManager = logging.NewSlogManager(AppName)
	level := viper.GetString("logLevel")
	out := logging.Outputs{Console: console}

	var closers []func()

	logFile, err := logging.OpenLogFile(viper.GetString("logsDir"), AppName, SessionStartTime)
	if err != nil {
		fmt.Fprintf(console, "Failed to open log file: %v\n", err)
	} else {
		out.File = logFile
		closers = append(closers, func() { logFile.Close() })
	}

	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(console, "Failed to connect to Graylog: %v\n", err)
		} else {
			out.Graylog = w
			closers = append(closers, func() { w.Close() })
		}
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var logWriter io.Writer
		if logFile != nil {
			logWriter = logFile
		}
		OTelProvider, err = intOtel.New(context.Background(), intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logWriter,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(console, "Failed to initialize OTel provider: %v\n", err)
		}
	}
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	out.OTel = otelLogProvider

	SlogManager.Setup(out, level)
	Logger = SlogManager.Logger()
	if logFile != nil {
		Logger.Debug("Logging to file", "path", logFile.Name())
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := SlogManager.Flush(ctx); err != nil {
			fmt.Fprintf(console, "Failed to flush logs: %v\n", err)
		}
		if OTelProvider != nil {
			_ = OTelProvider.Shutdown(ctx)
			OTelProvider = nil
		}
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		Logger = slog.Default()
	}
}

// initInflux returns a connected measurement recorder, or nil when influx
// is disabled or unusable.
func initInflux(zl zerolog.Logger) *influx.Manager {
	m := influx.NewManager(zl, config.GetInfluxConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Warn("InfluxDB unavailable, measurements are not recorded", "error", err)
		}
		_ = m.Close()
		return nil
	}
	return m
}
