// Package logging builds the process zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures New. Zero values mean info level, console format, stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logger writing to opts.Output.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", FormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core), nil
}

// Component scopes a logger to a named subsystem.
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("component", name))
}
