// Package logging builds the structured logger shared by every voicescout component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration
type Config struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Format     string `yaml:"format" env:"FORMAT"` // text, json, logfmt
	File       string `yaml:"file,omitempty" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups,omitempty" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" env:"MAX_AGE_DAYS"`
}

// DefaultConfig logs info-level text to stderr
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "text",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// New returns a logger and a closer for the rotating file, if one was opened.
// The closer is never nil.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	formatter, err := parseFormatter(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w, closer = lj, lj
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "voicescout",
	})
	return logger, closer, nil
}

// ParseLevel accepts debug, info, warn, error; empty means info
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

func parseFormatter(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", s)
	}
}

// Discard returns a logger that drops everything; used when a component gets nil
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discard logger when l is nil
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Component derives a child logger tagged with the component name
func Component(l *log.Logger, name string) *log.Logger {
	return OrDiscard(l).With("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
