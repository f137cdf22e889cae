package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 28
)

// Option configures RuntimeLogger creation.
type Option func(*newOptions)

type newOptions struct {
	dir        string
	runID      string
	level      log.Level
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	debugLines int
}

// WithDir sets the log directory. The default is ~/.crewmanifest/logs.
func WithDir(dir string) Option {
	return func(opts *newOptions) {
		opts.dir = strings.TrimSpace(dir)
	}
}

// WithRunID configures the run_id field used in emitted log records.
func WithRunID(runID string) Option {
	return func(opts *newOptions) {
		opts.runID = strings.TrimSpace(runID)
	}
}

// WithLevel sets the minimum level written to the log file.
func WithLevel(level log.Level) Option {
	return func(opts *newOptions) {
		opts.level = level
	}
}

// WithRotation rotates the log file once it passes maxSizeMB megabytes,
// keeping maxBackups old files for at most maxAgeDays days. Zero backups or
// age keeps every rotated file.
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(opts *newOptions) {
		if maxSizeMB > 0 {
			opts.maxSizeMB = maxSizeMB
		}
		if maxBackups >= 0 {
			opts.maxBackups = maxBackups
		}
		if maxAgeDays >= 0 {
			opts.maxAgeDays = maxAgeDays
		}
	}
}

// WithDebugLines sets how many records the in-memory debug console keeps.
func WithDebugLines(lines int) Option {
	return func(opts *newOptions) {
		if lines > 0 {
			opts.debugLines = lines
		}
	}
}

// RuntimeLogger writes structured JSON logs to disk and mirrors them into a
// bounded debug buffer for the in-app console.
type RuntimeLogger struct {
	Logger *log.Logger
	Debug  *DebugBuffer
	file   *lumberjack.Logger
}

// New initializes logging under the configured directory without writing to stdout.
func New(ctx context.Context, options ...Option) (*RuntimeLogger, error) {
	resolved, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(resolved.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102-150405")
	fileName := fmt.Sprintf("crewmanifest-%s.log", timestamp)
	if resolved.runID != "" {
		fileName = fmt.Sprintf("crewmanifest-%s-%s.log", timestamp, resolved.runID)
	}
	filePath := filepath.Join(resolved.dir, fileName)
	file := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    resolved.maxSizeMB,
		MaxBackups: resolved.maxBackups,
		MaxAge:     resolved.maxAgeDays,
	}

	debug := NewDebugBuffer(resolved.debugLines)
	sink := io.MultiWriter(file, debug)
	logger := log.NewWithOptions(sink, log.Options{
		Level:           resolved.level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	logger.SetFormatter(log.JSONFormatter)
	if resolved.runID != "" {
		logger = logger.With("run_id", resolved.runID)
	}

	runtimeLogger := &RuntimeLogger{
		Logger: logger,
		Debug:  debug,
		file:   file,
	}
	runtimeLogger.Logger.With("log_file", filePath).Info("logger initialized")

	_ = ctx
	return runtimeLogger, nil
}

// Close closes the current log file.
func (r *RuntimeLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Path returns the current log file path.
func (r *RuntimeLogger) Path() string {
	if r == nil || r.file == nil {
		return ""
	}
	return r.file.Filename
}

// Discard returns a logger that drops every record.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func resolveOptions(options []Option) (newOptions, error) {
	resolved := newOptions{
		level:      log.InfoLevel,
		maxSizeMB:  defaultMaxSizeMB,
		maxBackups: defaultMaxBackups,
		maxAgeDays: defaultMaxAgeDays,
		debugLines: DefaultDebugLines,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&resolved)
	}
	if resolved.dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return newOptions{}, fmt.Errorf("resolve home directory: %w", err)
		}
		resolved.dir = filepath.Join(homeDir, ".crewmanifest", "logs")
	}
	return resolved, nil
}
