// Package clipboard copies record JSON and id lists out of the console.
package clipboard

import (
	"encoding/base64"
	"os"
	"os/exec"
	"runtime"
	"strings"

	tea "charm.land/bubbletea/v2"
	cblog "github.com/charmbracelet/log"
)

// Method tells how a copy was performed
type Method string

const (
	MethodNative Method = "native"
	// MethodOSC52 is fire-and-forget: the terminal never acknowledges it,
	// so success is assumed.
	MethodOSC52 Method = "osc52"
)

// CopyMsg is sent after a clipboard copy completes
type CopyMsg struct {
	// What describes the copied content for the status bar ("3 ids")
	What    string
	Success bool
	Method  Method
}

// Copier copies text with a native command, falling back to OSC 52.
type Copier struct {
	// Command overrides auto-detection, e.g. "xclip -selection clipboard".
	// It receives the text on stdin.
	Command string
	// lookPath and run are replaced in tests
	lookPath func(string) (string, error)
	run      func(name string, args []string, stdin string) error
}

// New creates a Copier. BACKOFFICE_COPY_COMMAND overrides auto-detection.
func New() *Copier {
	return &Copier{
		Command:  os.Getenv("BACKOFFICE_COPY_COMMAND"),
		lookPath: exec.LookPath,
		run: func(name string, args []string, stdin string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdin = strings.NewReader(stdin)
			return cmd.Run()
		},
	}
}

// Cmd returns a tea.Cmd that copies text and reports a CopyMsg.
func (c *Copier) Cmd(what, text string) tea.Cmd {
	if text == "" {
		return func() tea.Msg { return CopyMsg{What: what} }
	}
	if err := c.copyNative(text); err == nil {
		cblog.With("component", "clipboard").Debug("Copied via native command", "len", len(text))
		return func() tea.Msg { return CopyMsg{What: what, Success: true, Method: MethodNative} }
	}
	cblog.With("component", "clipboard").Debug("Native clipboard unavailable, using OSC 52")
	return tea.Batch(
		tea.Printf("%s", OSC52(text)),
		func() tea.Msg { return CopyMsg{What: what, Success: true, Method: MethodOSC52} },
	)
}

// OSC52 builds the escape sequence that asks the terminal to set the
// system clipboard: ESC ] 52 ; c ; <base64> BEL
func OSC52(text string) string {
	return "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\x07"
}

func (c *Copier) copyNative(text string) error {
	if c.Command != "" {
		parts := strings.Fields(c.Command)
		if len(parts) == 0 {
			return exec.ErrNotFound
		}
		return c.run(parts[0], parts[1:], text)
	}

	switch runtime.GOOS {
	case "darwin":
		return c.run("pbcopy", nil, text)
	case "linux":
		if _, err := c.lookPath("wl-copy"); err == nil && os.Getenv("WAYLAND_DISPLAY") != "" {
			return c.run("wl-copy", nil, text)
		}
		if _, err := c.lookPath("xclip"); err == nil {
			return c.run("xclip", []string{"-selection", "clipboard"}, text)
		}
		if _, err := c.lookPath("xsel"); err == nil {
			return c.run("xsel", []string{"--clipboard", "--input"}, text)
		}
	}
	return exec.ErrNotFound
}
