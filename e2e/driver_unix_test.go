//go:build e2e && unix

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

const ringSize = 1 << 20 // 1 MiB scrollback

// ANSI cleaner (CSI + OSC + CR)
var ansiRe = regexp.MustCompile(`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|(?:\x1b\][^\x07]*\x07)|\r`)

// TUITestFramework is a minimal driver for backoffice e2e tests
type TUITestFramework struct {
	t   *testing.T
	pty *os.File
	tty *os.File
	cmd *exec.Cmd

	workspace string

	mu   sync.Mutex
	buf  []byte
	head int
	full bool
}

func NewTUITest(t *testing.T) *TUITestFramework {
	t.Helper()
	return &TUITestFramework{t: t, buf: make([]byte, ringSize)}
}

// SetupWorkspace creates an isolated HOME holding a copy of the sample
// catalog and its data, and writes config.toml. extra is appended to the
// config verbatim. Returns the workspace directory.
func (tf *TUITestFramework) SetupWorkspace(extra string) (string, error) {
	tf.t.Helper()
	dir := tf.t.TempDir()
	tf.workspace = dir
	if err := copyTree(filepath.Join("..", "examples"), filepath.Join(dir, "examples")); err != nil {
		return "", err
	}
	cfg := fmt.Sprintf(`[appearance]
theme = "nord"

[table]
arm_seconds = 5
debounce_ms = 50

[storage]
backend = "memory"

[catalog]
path = %q

[log]
path = %q
`, filepath.Join(dir, "examples", "catalog.yaml"), filepath.Join(dir, "backoffice.log"))
	cfg += extra
	if err := os.WriteFile(tf.ConfigPath(), []byte(cfg), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath is where SetupWorkspace writes config.toml
func (tf *TUITestFramework) ConfigPath() string {
	return filepath.Join(tf.workspace, "config.toml")
}

// DataPath is the workspace copy of an example data file
func (tf *TUITestFramework) DataPath(name string) string {
	return filepath.Join(tf.workspace, "examples", "data", name)
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// StartApp runs the compiled binary under a PTY with the workspace config
func (tf *TUITestFramework) StartApp(args ...string) error {
	tf.t.Helper()
	tf.cmd = exec.Command(binPath, args...)
	p, t, err := pty.Open()
	if err != nil {
		return err
	}
	tf.pty, tf.tty = p, t

	if err := pty.Setsize(p, &pty.Winsize{Rows: 40, Cols: 120}); err != nil {
		_ = p.Close()
		_ = t.Close()
		return err
	}

	tf.cmd.Stdout, tf.cmd.Stdin, tf.cmd.Stderr = t, t, t
	// Run the app in the isolated workspace so per-test files don't clash
	if tf.workspace != "" {
		tf.cmd.Dir = tf.workspace
	}
	env := append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"BACKOFFICE_CONFIG="+tf.ConfigPath(),
		"BACKOFFICE_COPY_COMMAND=true",
	)
	tf.cmd.Env = env

	if err := tf.cmd.Start(); err != nil {
		_ = p.Close()
		_ = t.Close()
		return err
	}
	go tf.readLoop()
	return nil
}

func (tf *TUITestFramework) readLoop() {
	buf := make([]byte, 8192)
	for {
		n, err := tf.pty.Read(buf)
		if n > 0 {
			tf.mu.Lock()
			for i := 0; i < n; i++ {
				tf.buf[tf.head] = buf[i]
				tf.head = (tf.head + 1) % ringSize
				if tf.head == 0 {
					tf.full = true
				}
			}
			tf.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (tf *TUITestFramework) Send(keys string) error { _, err := tf.pty.Write([]byte(keys)); return err }
func (tf *TUITestFramework) CtrlC() error           { return tf.Send("\x03") }
func (tf *TUITestFramework) Enter() error           { return tf.Send("\r") }
func (tf *TUITestFramework) Escape() error          { return tf.Send("\x1b") }

// SendSlow types keys one at a time so every key is its own event
func (tf *TUITestFramework) SendSlow(keys string) error {
	for _, r := range keys {
		if err := tf.Send(string(r)); err != nil {
			return err
		}
		time.Sleep(15 * time.Millisecond)
	}
	return nil
}

func (tf *TUITestFramework) Snapshot() string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	if !tf.full {
		return string(tf.buf[:tf.head])
	}
	out := make([]byte, ringSize)
	copy(out, tf.buf[tf.head:])
	copy(out[ringSize-tf.head:], tf.buf[:tf.head])
	return string(out)
}
func (tf *TUITestFramework) SnapshotPlain() string { return ansiRe.ReplaceAllString(tf.Snapshot(), "") }

// ClearBuffer forgets captured output so later waits only see new frames
func (tf *TUITestFramework) ClearBuffer() {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.head = 0
	tf.full = false
}

func (tf *TUITestFramework) WaitForPlain(substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(tf.SnapshotPlain(), substr) {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return false
}

// WaitReady waits for the first frame of the table
func (tf *TUITestFramework) WaitReady() error {
	if !tf.WaitForPlain("Showing", 5*time.Second) {
		return fmt.Errorf("table never rendered:\n%s", tf.SnapshotPlain())
	}
	return nil
}

// OpenCommand enters command mode and waits for the command bar to be ready.
func (tf *TUITestFramework) OpenCommand() error {
	tf.ClearBuffer()
	if err := tf.Send(":"); err != nil {
		return err
	}
	// Command bar shows its placeholder when ready
	if !tf.WaitForPlain("Enter command", 2*time.Second) {
		return fmt.Errorf("command bar not ready")
	}
	return nil
}

// RunCommand types a command bar line and submits it
func (tf *TUITestFramework) RunCommand(line string) error {
	if err := tf.OpenCommand(); err != nil {
		return err
	}
	if err := tf.SendSlow(line); err != nil {
		return err
	}
	return tf.Enter()
}

// OpenSearch enters search mode and waits for the search bar to be ready.
func (tf *TUITestFramework) OpenSearch() error {
	tf.ClearBuffer()
	if err := tf.Send("/"); err != nil {
		return err
	}
	// Search bar shows label "Search" when ready
	if !tf.WaitForPlain("Search", 2*time.Second) {
		return fmt.Errorf("search bar not ready")
	}
	return nil
}

// WaitForFile polls path until pred accepts its content
func (tf *TUITestFramework) WaitForFile(path string, timeout time.Duration, pred func(string) bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && pred(string(data)) {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return false
}

func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		_ = tf.pty.Close()
		tf.pty = nil
	}
	if tf.tty != nil {
		_ = tf.tty.Close()
		tf.tty = nil
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		_ = tf.cmd.Process.Kill()
		_, _ = tf.cmd.Process.Wait()
	}
}

// ---- mock REST API ----

// MockAPI serves one collection at /orders with paging, deletes and a
// change feed at /orders/events.
type MockAPI struct {
	*httptest.Server

	mu      sync.Mutex
	rows    map[string]map[string]any
	deletes []string
	auth    []string
	changes chan struct{}
}

func NewMockAPI(rows []map[string]any) *MockAPI {
	api := &MockAPI{rows: map[string]map[string]any{}, changes: make(chan struct{}, 4)}
	for _, r := range rows {
		api.rows[fmt.Sprint(r["id"])] = r
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", api.list)
	mux.HandleFunc("GET /orders/events", api.events)
	mux.HandleFunc("DELETE /orders/{id}", api.remove)
	api.Server = httptest.NewServer(mux)
	return api
}

func (a *MockAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auth = append(a.auth, r.Header.Get("Authorization"))

	ids := make([]string, 0, len(a.rows))
	for id := range a.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(ids)
	}
	from := min((page-1)*limit, len(ids))
	to := min(from+limit, len(ids))
	items := make([]map[string]any, 0, to-from)
	for _, id := range ids[from:to] {
		items = append(items, a.rows[id])
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(ids)})
}

func (a *MockAPI) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rows[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"order not found"}`)
		return
	}
	delete(a.rows, id)
	a.deletes = append(a.deletes, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *MockAPI) events(w http.ResponseWriter, r *http.Request) {
	fl, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if fl != nil {
		fl.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-a.changes:
			_, _ = io.WriteString(w, "event: changed\ndata: {}\n\n")
			if fl != nil {
				fl.Flush()
			}
		}
	}
}

// Put adds or replaces a row and notifies watchers
func (a *MockAPI) Put(row map[string]any) {
	a.mu.Lock()
	a.rows[fmt.Sprint(row["id"])] = row
	a.mu.Unlock()
	a.changes <- struct{}{}
}

// Deletes lists the ids deleted so far
func (a *MockAPI) Deletes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.deletes...)
}

// AuthHeaders lists the Authorization headers of list requests
func (a *MockAPI) AuthHeaders() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.auth...)
}
