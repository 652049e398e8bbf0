package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels re-exported so callers do not need to import slog.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var levelNames = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record as the "app" attribute.
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path.
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string `env:"LEVEL" default:"info"`

	// Filter holds per-logger overrides, e.g. "repo.blob:debug,infra:warn".
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to slog's JSON handler.
	JSON bool `env:"JSON" default:"false"`

	// OutputHandle takes precedence over Output when set.
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	config     LoggerConfig
	configLock sync.Mutex
)

// Configure sets up the global logging configuration.
// Loggers obtained before the call keep their previous output.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	if err := configure(cfg, appName); err != nil {
		panic(err)
	}

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	))
}

func configure(cfg LoggerConfig, appName string) error {
	configLock.Lock()
	defer configLock.Unlock()

	cfg.AppName = appName

	if cfg.OutputHandle == nil {
		switch cfg.Output {
		case "", "discard":
			cfg.OutputHandle = io.Discard
		case "stdout":
			cfg.OutputHandle = os.Stdout
		case "stderr":
			cfg.OutputHandle = os.Stderr
		default:
			file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}

			cfg.OutputHandle = file
		}
	}

	config = cfg

	slog.SetLogLoggerLevel(parseLevel(config.Level, LevelInfo))

	return nil
}

// GetLogLogger adapts a Logger for code that wants a *log.Logger, such as http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// GetLogger returns a logger named after the component using it. The name
// is dotted ("svc.relaysvc.http_transport") and is matched against the
// configured filter prefixes.
func GetLogger(name string) Logger {
	configLock.Lock()
	cfg := config
	configLock.Unlock()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level, LevelInfo))

	var handler Handler

	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{ //nolint:exhaustruct
			AddSource: true,
			Level:     level,
		})
	} else {
		handler = &ConsoleHandler{ //nolint:exhaustruct
			Output:    cfg.OutputHandle,
			Level:     level,
			PkgLevels: cfg.pkgLevels(),
		}
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With("logger", name)
}

func (cfg LoggerConfig) pkgLevels() map[string]Level {
	levels := make(map[string]Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		name, level, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}

		levels[name] = parseLevel(level, LevelDebug)
	}

	return levels
}

func parseLevel(s string, fallback Level) Level {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return fallback
	}

	return level
}
