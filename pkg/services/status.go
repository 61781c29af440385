// Package services holds host-side services that sit between the table
// controller and the terminal, currently the status bar.
package services

import (
	"sync"
	"time"

	cblog "github.com/charmbracelet/log"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// StatusLevel represents the level of a status message
type StatusLevel string

const (
	StatusLevelInfo    StatusLevel = "info"
	StatusLevelSuccess StatusLevel = "success"
	StatusLevelWarn    StatusLevel = "warn"
	StatusLevelError   StatusLevel = "error"
	StatusLevelDebug   StatusLevel = "debug"
)

// DefaultStatusTTL is how long a message stays in the status bar
const DefaultStatusTTL = 4 * time.Second

// StatusMessage represents a status message
type StatusMessage struct {
	Level   StatusLevel `json:"level"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
	At      time.Time   `json:"at"`
}

// StatusChangeHandler is called when status changes
type StatusChangeHandler func(message StatusMessage)

// StatusService interface defines operations for status reporting
type StatusService interface {
	Info(message string)
	Success(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)

	// Report shows err as a toast and records it
	Report(err error)

	// Current returns the live message, if it has not expired
	Current() (StatusMessage, bool)

	Clear()
	SetHandler(handler StatusChangeHandler)
}

// StatusServiceImpl provides a concrete implementation of StatusService
type StatusServiceImpl struct {
	mu           sync.Mutex
	handler      StatusChangeHandler
	current      StatusMessage
	debugEnabled bool
	ttl          time.Duration
	now          func() time.Time
	errors       *apperrors.Handler
}

// StatusServiceConfig holds configuration for StatusService
type StatusServiceConfig struct {
	Handler      StatusChangeHandler
	DebugEnabled bool
	TTL          time.Duration
	// Now replaces the clock, for tests
	Now func() time.Time
	// Errors records reported errors; nil creates one
	Errors *apperrors.Handler
}

// NewStatusService creates a new StatusService implementation
func NewStatusService(config StatusServiceConfig) *StatusServiceImpl {
	s := &StatusServiceImpl{
		handler:      config.Handler,
		debugEnabled: config.DebugEnabled,
		ttl:          config.TTL,
		now:          config.Now,
		errors:       config.Errors,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultStatusTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.errors == nil {
		s.errors = apperrors.NewHandler(0)
	}
	return s
}

func (s *StatusServiceImpl) Info(message string)    { s.post(StatusLevelInfo, message, "") }
func (s *StatusServiceImpl) Success(message string) { s.post(StatusLevelSuccess, message, "") }
func (s *StatusServiceImpl) Warn(message string)    { s.post(StatusLevelWarn, message, "") }
func (s *StatusServiceImpl) Error(message string)   { s.post(StatusLevelError, message, "") }

// Debug only surfaces when debug is enabled
func (s *StatusServiceImpl) Debug(message string) {
	if !s.debugEnabled {
		return
	}
	s.post(StatusLevelDebug, message, "")
}

// Report implements StatusService.Report
func (s *StatusServiceImpl) Report(err error) {
	if err == nil {
		return
	}
	toast := s.errors.Handle(err)
	level := StatusLevelError
	switch toast.Level {
	case apperrors.ToastWarn:
		level = StatusLevelWarn
	case apperrors.ToastInfo:
		level = StatusLevelInfo
	}
	s.post(level, toast.Message, toast.Hint)
}

// History returns the reported errors, newest last
func (s *StatusServiceImpl) History() []*apperrors.AppError {
	return s.errors.History()
}

// Current implements StatusService.Current
func (s *StatusServiceImpl) Current() (StatusMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Message == "" || s.now().Sub(s.current.At) >= s.ttl {
		return StatusMessage{}, false
	}
	return s.current, true
}

// Clear implements StatusService.Clear
func (s *StatusServiceImpl) Clear() {
	s.mu.Lock()
	s.current = StatusMessage{}
	s.mu.Unlock()
}

// SetHandler implements StatusService.SetHandler
func (s *StatusServiceImpl) SetHandler(handler StatusChangeHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// TTL returns how long messages stay visible
func (s *StatusServiceImpl) TTL() time.Duration { return s.ttl }

func (s *StatusServiceImpl) post(level StatusLevel, message, hint string) {
	msg := StatusMessage{Level: level, Message: message, Hint: hint, At: s.now()}

	logger := cblog.With("component", "status")
	switch level {
	case StatusLevelError:
		logger.Error(message)
	case StatusLevelWarn:
		logger.Warn(message)
	case StatusLevelDebug:
		logger.Debug(message)
	default:
		logger.Info(message)
	}

	s.mu.Lock()
	s.current = msg
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(msg)
	}
}

var _ StatusService = (*StatusServiceImpl)(nil)

// NullStatusChangeHandler provides a handler that does nothing (for testing)
func NullStatusChangeHandler(StatusMessage) {}
