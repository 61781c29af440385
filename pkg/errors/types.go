package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCategory groups failures by the subsystem that produced them
type ErrorCategory string

const (
	ErrorValidation ErrorCategory = "validation"
	ErrorConfig     ErrorCategory = "config"
	ErrorCatalog    ErrorCategory = "catalog"
	ErrorStorage    ErrorCategory = "storage"
	ErrorNetwork    ErrorCategory = "network"
	ErrorAPI        ErrorCategory = "api"
	ErrorTimeout    ErrorCategory = "timeout"
	ErrorPermission ErrorCategory = "permission"
	ErrorNotFound   ErrorCategory = "not-found"
	ErrorInternal   ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError is a structured error carrying what the UI needs to explain it
type AppError struct {
	Category    ErrorCategory  `json:"category"`
	Severity    ErrorSeverity  `json:"severity"`
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	Details     string         `json:"details,omitempty"`
	Cause       error          `json:"-"`
	Recoverable bool           `json:"recoverable"`
	UserAction  string         `json:"userAction,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Context     map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

// Unwrap implements the error unwrapping interface
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same category and code
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// WithContext adds contextual information to the error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying cause of this error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithUserAction sets a suggested user action for resolving the error
func (e *AppError) WithUserAction(action string) *AppError {
	e.UserAction = action
	return e
}

// WithSeverity sets the severity level
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// IsCategory checks if the error belongs to a specific category
func (e *AppError) IsCategory(category ErrorCategory) bool {
	return e.Category == category
}

// New creates a new AppError
func New(category ErrorCategory, code, message string) *AppError {
	return &AppError{
		Category:  category,
		Severity:  SeverityMedium,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap creates a new AppError around an existing error
func Wrap(err error, category ErrorCategory, code, message string) *AppError {
	return New(category, code, message).WithCause(err)
}

// ValidationError creates a validation-related error
func ValidationError(code, message string) *AppError {
	return New(ErrorValidation, code, message).
		AsRecoverable().
		WithUserAction("Check the highlighted fields and try again")
}

// ConfigError creates a configuration-related error
func ConfigError(code, message string) *AppError {
	return New(ErrorConfig, code, message).
		WithSeverity(SeverityHigh).
		WithUserAction("Check your backoffice config.toml")
}

// StorageError creates an error for a failed read or write of local state
func StorageError(code, message string) *AppError {
	return New(ErrorStorage, code, message).
		AsRecoverable().
		WithUserAction("Check that the data directory is writable")
}

// TimeoutError creates a timeout-related error
func TimeoutError(code, message string) *AppError {
	return New(ErrorTimeout, code, message).
		AsRecoverable().
		WithUserAction("The operation timed out. Press r to refresh")
}

// As extracts an *AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
