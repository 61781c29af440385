package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_ErrorString(t *testing.T) {
	err := StorageError("WRITE_FAILED", "Could not save settings").
		WithDetails("settings.json").
		WithCause(fmt.Errorf("disk full"))
	got := err.Error()
	for _, want := range []string{"storage", "WRITE_FAILED", "Could not save settings", "settings.json", "disk full"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestAppError_IsAndAs(t *testing.T) {
	base := New(ErrorAPI, "HTTP_404", "Not found")
	wrapped := fmt.Errorf("fetch contracts: %w", base)

	if !stderrors.Is(wrapped, New(ErrorAPI, "HTTP_404", "other message")) {
		t.Error("errors.Is should match on category and code")
	}
	if stderrors.Is(wrapped, New(ErrorAPI, "HTTP_500", "")) {
		t.Error("errors.Is matched a different code")
	}
	got, ok := As(wrapped)
	if !ok || got != base {
		t.Errorf("As() = %v, %v", got, ok)
	}
}

func TestToastFor(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level ToastLevel
		hint  bool
	}{
		{"nil", nil, "", false},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), ToastWarn, true},
		{"validation", ValidationError("REQUIRED", "Name is required"), ToastWarn, true},
		{"config", ConfigError("BAD_TOML", "Invalid config"), ToastError, true},
		{"plain", fmt.Errorf("boom"), ToastError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toast := ToastFor(tt.err)
			if toast.Level != tt.level {
				t.Errorf("Level = %q, want %q", toast.Level, tt.level)
			}
			if (toast.Hint != "") != tt.hint {
				t.Errorf("Hint = %q, want present=%v", toast.Hint, tt.hint)
			}
		})
	}
}

func TestHandler_HistoryIsBounded(t *testing.T) {
	h := NewHandler(2)
	h.Handle(fmt.Errorf("one"))
	h.Handle(ValidationError("A", "two"))
	h.Handle(StorageError("B", "three"))

	hist := h.History()
	if len(hist) != 2 {
		t.Fatalf("History() len = %d, want 2", len(hist))
	}
	if hist[0].Message != "two" || hist[1].Message != "three" {
		t.Errorf("History() = %q, %q", hist[0].Message, hist[1].Message)
	}
	h.Clear()
	if len(h.History()) != 0 {
		t.Error("Clear() kept entries")
	}
}
