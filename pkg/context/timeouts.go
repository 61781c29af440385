package context

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// TimeoutConfig holds the timeout of each operation class
type TimeoutConfig struct {
	Default time.Duration
	API     time.Duration
	Fetch   time.Duration
	Save    time.Duration
	Storage time.Duration
	UI      time.Duration
}

// DefaultTimeouts are used until SetTimeouts is called
var DefaultTimeouts = TimeoutConfig{
	Default: 5 * time.Second,
	API:     5 * time.Second,  // single REST call
	Fetch:   10 * time.Second, // page fetch, may span several calls
	Save:    10 * time.Second, // add/edit/delete callbacks
	Storage: 2 * time.Second,  // settings file or SQLite
	UI:      2 * time.Second,
}

var (
	mu       sync.RWMutex
	timeouts = DefaultTimeouts
)

// SetTimeouts replaces the active configuration. Zero fields keep their defaults.
func SetTimeouts(cfg TimeoutConfig) {
	mu.Lock()
	defer mu.Unlock()
	timeouts = DefaultTimeouts
	if cfg.Default > 0 {
		timeouts.Default = cfg.Default
	}
	if cfg.API > 0 {
		timeouts.API = cfg.API
	}
	if cfg.Fetch > 0 {
		timeouts.Fetch = cfg.Fetch
	}
	if cfg.Save > 0 {
		timeouts.Save = cfg.Save
	}
	if cfg.Storage > 0 {
		timeouts.Storage = cfg.Storage
	}
	if cfg.UI > 0 {
		timeouts.UI = cfg.UI
	}
}

// SetRequestTimeout applies one duration to every request-bound class
func SetRequestTimeout(d time.Duration) {
	SetTimeouts(TimeoutConfig{API: d, Fetch: d, Save: d})
}

// OperationType names an operation class
type OperationType string

const (
	OpDefault OperationType = "default"
	OpAPI     OperationType = "api"
	OpFetch   OperationType = "fetch"
	OpSave    OperationType = "save"
	OpStorage OperationType = "storage"
	OpUI      OperationType = "ui"
)

// WithTimeout creates a context with the timeout of opType
func WithTimeout(parent context.Context, opType OperationType) (context.Context, context.CancelFunc) {
	timeout := TimeoutFor(opType)
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// TimeoutFor returns the configured timeout for opType
func TimeoutFor(opType OperationType) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	switch opType {
	case OpAPI:
		return timeouts.API
	case OpFetch:
		return timeouts.Fetch
	case OpSave:
		return timeouts.Save
	case OpStorage:
		return timeouts.Storage
	case OpUI:
		return timeouts.UI
	default:
		return timeouts.Default
	}
}

// HandleTimeout converts a finished context into a structured error, or nil
// if the context is still live
func HandleTimeout(ctx context.Context, opType OperationType) *apperrors.AppError {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return apperrors.TimeoutError(
			"OPERATION_TIMEOUT",
			fmt.Sprintf("Operation timed out after %v", TimeoutFor(opType)),
		).WithDetails(fmt.Sprintf("Operation type: %s", opType))
	case context.Canceled:
		return apperrors.New(
			apperrors.ErrorInternal,
			"OPERATION_CANCELED",
			"Operation was canceled",
		).WithDetails(fmt.Sprintf("Operation type: %s", opType))
	}
	return nil
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	if err == context.DeadlineExceeded {
		return true
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.IsCategory(apperrors.ErrorTimeout)
	}
	return false
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	if err == context.Canceled {
		return true
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Code == "OPERATION_CANCELED" || appErr.Code == "REQUEST_CANCELLED"
	}
	return false
}

// WithAPITimeout creates a context for one REST call
func WithAPITimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, OpAPI)
}

// WithFetchTimeout creates a context for a page fetch
func WithFetchTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, OpFetch)
}

// WithSaveTimeout creates a context for an add, edit or delete
func WithSaveTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, OpSave)
}

// WithStorageTimeout creates a context for a persistence operation
func WithStorageTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return WithTimeout(parent, OpStorage)
}
