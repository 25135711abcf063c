package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Outputs selects where log records go. Nil fields are skipped.
type Outputs struct {
	// Console receives human readable text. The CLI points this at stderr
	// so that stdout carries only command results.
	Console io.Writer
	File    io.Writer
	// Graylog receives one JSON document per record, see NewGraylogWriter.
	Graylog io.Writer
	OTel    *sdklog.LoggerProvider
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger      *slog.Logger
	serviceName string

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager. serviceName
// names the OTel instrumentation scope.
func NewSlogManager(serviceName string) *SlogManager {
	return &SlogManager{serviceName: serviceName}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the logger from out. Calling it again replaces the logger.
func (m *SlogManager) Setup(out Outputs, level string) {
	lvl := ParseLevel(level)
	m.logProvider = out.OTel

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if out.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(out.Console, handlerOpts))
	}

	if out.File != nil {
		handlers = append(handlers, slog.NewTextHandler(out.File, handlerOpts))
	}

	if out.Graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(out.Graylog, handlerOpts))
	}

	if out.OTel != nil {
		handlers = append(handlers, otelslog.NewHandler(m.serviceName, otelslog.WithLoggerProvider(out.OTel)))
	}

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Debug("Logging initialized", "level", lvl.String(), "handlers", len(handlers))
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// NewGraylogWriter dials a GELF UDP endpoint. Each Write becomes one GELF
// message.
func NewGraylogWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, err
	}
	w.Facility = "terrain"
	return w, nil
}
