package errors

import (
	"context"
	stderrors "errors"
	"sync"

	cblog "github.com/charmbracelet/log"
)

// ToastLevel picks the colour of a status-bar message
type ToastLevel string

const (
	ToastInfo  ToastLevel = "info"
	ToastWarn  ToastLevel = "warn"
	ToastError ToastLevel = "error"
)

// Toast is what the host shows for an error
type Toast struct {
	Level   ToastLevel
	Message string
	Hint    string
}

// ToastFor maps any error to a status-bar message
func ToastFor(err error) Toast {
	if err == nil {
		return Toast{}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Toast{Level: ToastWarn, Message: "Request timed out", Hint: "Press r to refresh"}
	}
	if stderrors.Is(err, context.Canceled) {
		return Toast{Level: ToastInfo, Message: "Cancelled"}
	}
	appErr, ok := As(err)
	if !ok {
		return Toast{Level: ToastError, Message: err.Error()}
	}

	level := ToastError
	switch {
	case appErr.Category == ErrorValidation:
		level = ToastWarn
	case appErr.Recoverable && appErr.Severity != SeverityCritical:
		level = ToastWarn
	}

	msg := appErr.Message
	if appErr.Details != "" {
		msg += ": " + appErr.Details
	}
	return Toast{Level: level, Message: msg, Hint: appErr.UserAction}
}

// Handler logs errors and keeps a short history for the error view
type Handler struct {
	mu         sync.RWMutex
	history    []*AppError
	maxHistory int
}

// NewHandler creates a Handler keeping at most maxHistory entries
func NewHandler(maxHistory int) *Handler {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Handler{maxHistory: maxHistory}
}

// Handle logs err, records it, and returns the toast to display
func (h *Handler) Handle(err error) Toast {
	if err == nil {
		return Toast{}
	}
	appErr, ok := As(err)
	if !ok {
		appErr = Wrap(err, ErrorInternal, "UNEXPECTED", "Unexpected error")
	}

	logger := cblog.With("component", "errors", "category", appErr.Category, "code", appErr.Code)
	switch appErr.Severity {
	case SeverityCritical, SeverityHigh:
		logger.Error(appErr.Message, "err", appErr.Cause, "details", appErr.Details)
	default:
		logger.Warn(appErr.Message, "err", appErr.Cause, "details", appErr.Details)
	}

	h.mu.Lock()
	h.history = append(h.history, appErr)
	if len(h.history) > h.maxHistory {
		h.history = h.history[len(h.history)-h.maxHistory:]
	}
	h.mu.Unlock()

	return ToastFor(err)
}

// History returns recorded errors, newest last
func (h *Handler) History() []*AppError {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*AppError, len(h.history))
	copy(out, h.history)
	return out
}

// Clear drops the recorded history
func (h *Handler) Clear() {
	h.mu.Lock()
	h.history = nil
	h.mu.Unlock()
}
