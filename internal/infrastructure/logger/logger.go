// Package logger builds the zap loggers used by the server and CLIs and
// carries request-scoped loggers through context.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const redacted = "[REDACTED]"

// DefaultRedactedKeys are field names whose values never reach a sink
var DefaultRedactedKeys = []string{
	"password",
	"client_secret",
	"organizer_token",
	"access_token",
	"refresh_token",
	"authorization",
	"stripe_signature",
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr
	TimeFormat string

	// File adds a rotating JSON sink
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// RedactKeys replaces DefaultRedactedKeys when non-nil
	RedactKeys []string

	// Extra cores are teed after the primary sinks, e.g. the OTEL log bridge.
	Extra []zapcore.Core
}

// DefaultConfig is the console configuration used in development
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// ProductionConfig is DefaultConfig with JSON output
func ProductionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Format = "json"
	return cfg
}

// New builds a logger from cfg. Every sink, including Extra, sees fields
// after redaction.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = DefaultConfig().TimeFormat
	}
	level := parseLevel(cfg.Level)
	encoding := encoderConfig(cfg.TimeFormat)

	var primary zapcore.Encoder
	if cfg.Format == "console" {
		console := encoding
		console.EncodeLevel = zapcore.CapitalColorLevelEncoder
		primary = zapcore.NewConsoleEncoder(console)
	} else {
		primary = zapcore.NewJSONEncoder(encoding)
	}

	out := zapcore.Lock(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = zapcore.Lock(os.Stderr)
	}

	cores := []zapcore.Core{zapcore.NewCore(primary, out, level)}
	if cfg.File != "" {
		file := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoding), file, level))
	}
	cores = append(cores, cfg.Extra...)

	keys := cfg.RedactKeys
	if keys == nil {
		keys = DefaultRedactedKeys
	}
	core := newRedactingCore(zapcore.NewTee(cores...), keys)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func encoderConfig(timeFormat string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeFormat),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// parseLevel falls back to info for unknown names
func parseLevel(level string) zapcore.Level {
	if strings.EqualFold(level, "warning") {
		return zapcore.WarnLevel
	}
	parsed, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// redactingCore masks sensitive field values before they are encoded
type redactingCore struct {
	zapcore.Core
	keys map[string]struct{}
}

func newRedactingCore(core zapcore.Core, keys []string) zapcore.Core {
	if len(keys) == 0 {
		return core
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return &redactingCore{Core: core, keys: set}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.scrub(fields)), keys: c.keys}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.scrub(fields))
}

func (c *redactingCore) scrub(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if _, ok := c.keys[strings.ToLower(f.Key)]; !ok {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i] = zap.String(f.Key, redacted)
	}
	if out == nil {
		return fields
	}
	return out
}

// Sync flushes buffered entries. Errors from syncing a terminal are expected
// and callers discard them.
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
