// Package logging routes the charmbracelet logger, and the standard library
// logger, into a file so nothing is written over the terminal UI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	cblog "github.com/charmbracelet/log"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// Options configures Setup
type Options struct {
	// Level is the configured level; BACKOFFICE_LOG_LEVEL overrides it
	Level string
	// Path of the log file; empty creates a temp file
	Path string
}

// Session is an open log destination
type Session struct {
	Path   string
	Logger *cblog.Logger
	file   *os.File
}

// Close closes the log file
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// ParseLevel maps a level name to a charmbracelet level. Unknown names are Info.
func ParseLevel(name string) cblog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return cblog.DebugLevel
	case "WARN", "WARNING":
		return cblog.WarnLevel
	case "ERROR":
		return cblog.ErrorLevel
	case "FATAL":
		return cblog.FatalLevel
	default:
		return cblog.InfoLevel
	}
}

// Setup opens the log file and installs it as the default logger. The path
// is exported as BACKOFFICE_LOG_FILE for the logs view.
func Setup(opts Options) (*Session, error) {
	var (
		f   *os.File
		err error
	)
	if opts.Path == "" {
		f, err = os.CreateTemp("", "backoffice-*.log")
	} else {
		if err = os.MkdirAll(filepath.Dir(opts.Path), 0o755); err == nil {
			f, err = os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		}
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorStorage, "LOG_OPEN_FAILED", "Failed to open log file").
			WithContext("path", opts.Path)
	}
	_ = os.Setenv("BACKOFFICE_LOG_FILE", f.Name())

	level := opts.Level
	if env := os.Getenv("BACKOFFICE_LOG_LEVEL"); env != "" {
		level = env
	}
	logger := install(f, ParseLevel(level))
	logger.With("component", "app").Info("Backoffice started", "logFile", f.Name())
	return &Session{Path: f.Name(), Logger: logger, file: f}, nil
}

// install points both loggers at w
func install(w io.Writer, level cblog.Level) *cblog.Logger {
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logger := cblog.NewWithOptions(w, cblog.Options{ReportTimestamp: true})
	logger.SetLevel(level)
	cblog.SetDefault(logger)
	return logger
}

// Discard silences logging, for tests and one-shot commands.
func Discard() {
	install(io.Discard, cblog.FatalLevel)
}

// MustSetup is Setup that falls back to stderr warnings on failure.
func MustSetup(opts Options) *Session {
	s, err := Setup(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		Discard()
		return nil
	}
	return s
}
