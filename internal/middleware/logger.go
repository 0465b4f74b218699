package middleware

import (
	"time"

	"github.com/bilgisen/newsinsight/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RequestRecorder receives per-request measurements
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, took time.Duration)
}

// LoggerConfig defines the config for the logger middleware
type LoggerConfig struct {
	// Next defines a function to skip middleware.
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Logger is the zerolog logger instance to use.
	// If not provided, the default logger will be used.
	Logger *zerolog.Logger

	// Recorder additionally receives every request. Optional.
	Recorder RequestRecorder

	// Fields to include in the logs
	Fields []string
}

// DefaultLoggerConfig is the default config
var DefaultLoggerConfig = LoggerConfig{
	Next:   nil,
	Fields: []string{"latency", "status", "method", "path", "ip", "user_agent"},
}

// NewLogger creates a new middleware handler
func NewLogger(config ...LoggerConfig) fiber.Handler {
	cfg := DefaultLoggerConfig
	if len(config) > 0 {
		cfg = config[0]
		if len(cfg.Fields) == 0 {
			cfg.Fields = DefaultLoggerConfig.Fields
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.Get()
	}

	fields := make(map[string]bool)
	for _, f := range cfg.Fields {
		fields[f] = true
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		// errors are turned into responses by the app's ErrorHandler
		// after this middleware returns, so derive the final status here
		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}

		event := cfg.Logger.Info()
		if status >= fiber.StatusInternalServerError {
			event = cfg.Logger.Error()
		} else if status >= fiber.StatusBadRequest {
			event = cfg.Logger.Warn()
		}

		if fields["method"] {
			event = event.Str("method", c.Method())
		}
		if fields["path"] {
			event = event.Str("path", c.Path())
		}
		if fields["status"] {
			event = event.Int("status", status)
		}
		if fields["ip"] {
			event = event.Str("ip", c.IP())
		}
		if fields["user_agent"] {
			event = event.Str("user_agent", c.Get(fiber.HeaderUserAgent))
		}
		if fields["latency"] {
			event = event.Dur("latency", latency)
		}
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("request")

		if cfg.Recorder != nil {
			cfg.Recorder.RecordHTTPRequest(c.Method(), c.Route().Path, status, latency)
		}
		return err
	}
}

// RequestLogger is a simpler version of the logger middleware
func RequestLogger(rec RequestRecorder) fiber.Handler {
	return NewLogger(LoggerConfig{
		Recorder: rec,
		Fields:   []string{"latency", "status", "method", "path", "ip"},
	})
}
