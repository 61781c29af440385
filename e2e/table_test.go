//go:build e2e && unix

package main

import (
	"testing"
	"time"
)

func startWorkspaceApp(t *testing.T, args ...string) *TUITestFramework {
	t.Helper()
	tf := NewTUITest(t)
	t.Cleanup(tf.Cleanup)
	if _, err := tf.SetupWorkspace(""); err != nil {
		t.Fatalf("setup workspace: %v", err)
	}
	if err := tf.StartApp(args...); err != nil {
		t.Fatalf("start app: %v", err)
	}
	if err := tf.WaitReady(); err != nil {
		t.Fatal(err)
	}
	return tf
}

func TestPagingMovesThroughRows(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t)

	tf.ClearBuffer()
	_ = tf.Send("l")
	if !tf.WaitForPlain("Page 2/3", 2*time.Second) {
		t.Fatalf("expected page indicator:\n%s", tf.SnapshotPlain())
	}

	tf.ClearBuffer()
	_ = tf.Send("h")
	if !tf.WaitForPlain("Page 1/3", 2*time.Second) {
		t.Fatalf("expected first page:\n%s", tf.SnapshotPlain())
	}
}

func TestSearchNarrowsRows(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t, "-entity", "products")

	if err := tf.OpenSearch(); err != nil {
		t.Fatal(err)
	}
	_ = tf.SendSlow("moqueca")
	if !tf.WaitForPlain("of 1 ·", 3*time.Second) {
		t.Fatalf("expected a single match:\n%s", tf.SnapshotPlain())
	}
	_ = tf.Enter()

	tf.ClearBuffer()
	_ = tf.Escape()
	if !tf.WaitForPlain("of 16", 2*time.Second) {
		t.Fatalf("esc should clear the search:\n%s", tf.SnapshotPlain())
	}
}

func TestFilterAndSortCommands(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t, "-entity", "products")

	if err := tf.RunCommand("filter category = Coffee"); err != nil {
		t.Fatal(err)
	}
	if !tf.WaitForPlain("of 3", 3*time.Second) {
		t.Fatalf("expected 3 coffee products:\n%s", tf.SnapshotPlain())
	}

	if err := tf.RunCommand("sort price desc"); err != nil {
		t.Fatal(err)
	}
	if !tf.WaitForPlain("Sorted by price desc", 3*time.Second) {
		t.Fatalf("expected sort confirmation:\n%s", tf.SnapshotPlain())
	}

	if err := tf.RunCommand("clear"); err != nil {
		t.Fatal(err)
	}
	if !tf.WaitForPlain("of 16", 3*time.Second) {
		t.Fatalf("clear should restore every row:\n%s", tf.SnapshotPlain())
	}
}

func TestEntityCommandSwitchesTab(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t)

	if err := tf.RunCommand("entity tenants"); err != nil {
		t.Fatal(err)
	}
	if !tf.WaitForPlain("Aurora Foods", 3*time.Second) {
		t.Fatalf("expected tenant rows:\n%s", tf.SnapshotPlain())
	}
	if !tf.WaitForPlain("read-only", 2*time.Second) {
		t.Fatalf("tenants should be marked read-only:\n%s", tf.SnapshotPlain())
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t)

	if err := tf.RunCommand("frobnicate"); err != nil {
		t.Fatal(err)
	}
	if !tf.WaitForPlain("Unknown command", 3*time.Second) {
		t.Fatalf("expected unknown command warning:\n%s", tf.SnapshotPlain())
	}
}

func TestHelpOverlay(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t)

	tf.ClearBuffer()
	_ = tf.Send("?")
	if !tf.WaitForPlain("KEYS", 2*time.Second) {
		t.Fatalf("expected help overlay:\n%s", tf.SnapshotPlain())
	}
	tf.ClearBuffer()
	_ = tf.Escape()
	if !tf.WaitForPlain("Showing", 2*time.Second) {
		t.Fatalf("esc should close help:\n%s", tf.SnapshotPlain())
	}
}
