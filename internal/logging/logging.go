// Package logging builds the zap logger used by the CLI. Records go to a
// console writer and, when a file is configured, to a rotating file as well.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Sentinel errors for logger construction.
var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Rotation defaults, applied when the corresponding field is zero.
const (
	DefaultMaxSize    = 10 // megabytes
	DefaultMaxAge     = 7  // days
	DefaultMaxBackups = 3
)

// Config holds logger settings.
type Config struct {
	Level      string `yaml:"level"`      // debug, info, warn, error (default: warn)
	Format     string `yaml:"format"`     // console or json (default: console)
	File       string `yaml:"file"`       // optional rotating log file
	MaxSize    int    `yaml:"maxSize"`    // megabytes before rotation
	MaxAge     int    `yaml:"maxAge"`     // days to keep rotated files
	MaxBackups int    `yaml:"maxBackups"` // rotated files to keep
	Compress   bool   `yaml:"compress"`   // gzip rotated files
}

// Validate checks level and format. A nil Config is valid.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("%w: %q (must be console or json)", ErrInvalidFormat, c.Format)
	}
	if c.MaxSize < 0 || c.MaxAge < 0 || c.MaxBackups < 0 {
		return fmt.Errorf("log rotation values must not be negative")
	}
	return nil
}

// ParseLevel converts a level name to a zap level. Empty means warn.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zapcore.WarnLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// New builds a logger writing to console and, if cfg.File is set, to a
// lumberjack-rotated file. A nil console means stderr.
func New(cfg Config, console io.Writer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := ParseLevel(cfg.Level)
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format, true), zapcore.AddSync(console), level),
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder(cfg.Format, false), zapcore.AddSync(rotator(cfg)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func rotator(cfg Config) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	if l.MaxSize == 0 {
		l.MaxSize = DefaultMaxSize
	}
	if l.MaxAge == 0 {
		l.MaxAge = DefaultMaxAge
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = DefaultMaxBackups
	}
	return l
}

func encoder(format string, console bool) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	if strings.EqualFold(format, FormatJSON) {
		return zapcore.NewJSONEncoder(ec)
	}
	if console {
		// Short form for terminals: no timestamp, bracketed level.
		ec.TimeKey = zapcore.OmitKey
		ec.EncodeLevel = bracketLevel
	}
	return zapcore.NewConsoleEncoder(ec)
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}
