//go:build e2e && unix

package main

import (
	"strings"
	"testing"
	"time"
)

func TestRowDeleteNeedsConfirmation(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t)
	path := tf.DataPath("contracts.json")

	tf.ClearBuffer()
	_ = tf.Send("d")
	if !tf.WaitForPlain("Confirm delete", 2*time.Second) {
		t.Fatalf("first d should arm the delete:\n%s", tf.SnapshotPlain())
	}
	time.Sleep(200 * time.Millisecond)
	if !tf.WaitForFile(path, time.Second, func(s string) bool { return strings.Contains(s, "CT-1001") }) {
		t.Fatal("record deleted before confirmation")
	}

	_ = tf.Send("d")
	if !tf.WaitForFile(path, 3*time.Second, func(s string) bool { return !strings.Contains(s, "CT-1001") }) {
		t.Fatal("record still in the data file")
	}
	if !tf.WaitForPlain("1 record deleted", 3*time.Second) {
		t.Fatalf("expected delete confirmation:\n%s", tf.SnapshotPlain())
	}
}

func TestBulkDeleteSelectedRows(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t, "-entity", "products")
	path := tf.DataPath("products.json")

	_ = tf.SendSlow(" j ")
	tf.ClearBuffer()
	_ = tf.Send("D")
	if !tf.WaitForPlain("Press D again", 2*time.Second) {
		t.Fatalf("first D should arm:\n%s", tf.SnapshotPlain())
	}
	_ = tf.Send("D")
	if !tf.WaitForFile(path, 3*time.Second, func(s string) bool {
		return !strings.Contains(s, "Croissant") && strings.Contains(s, "Espresso")
	}) {
		t.Fatal("selected rows were not deleted")
	}
	if !tf.WaitForPlain("2 records deleted", 3*time.Second) {
		t.Fatalf("expected delete confirmation:\n%s", tf.SnapshotPlain())
	}
}

func TestAddProductThroughForm(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t, "-entity", "products")
	path := tf.DataPath("products.json")

	tf.ClearBuffer()
	_ = tf.Send("a")
	if !tf.WaitForPlain("Add product", 2*time.Second) {
		t.Fatalf("expected add dialog:\n%s", tf.SnapshotPlain())
	}

	// Name
	_ = tf.Enter()
	time.Sleep(50 * time.Millisecond)
	_ = tf.SendSlow("Tapioca")
	_ = tf.Enter()
	// Price is two fields down
	_ = tf.SendSlow("\t\t")
	_ = tf.Enter()
	time.Sleep(50 * time.Millisecond)
	_ = tf.SendSlow("14.5")
	_ = tf.Enter()
	time.Sleep(50 * time.Millisecond)

	// ctrl+s
	_ = tf.Send("\x13")
	if !tf.WaitForFile(path, 3*time.Second, func(s string) bool { return strings.Contains(s, "Tapioca") }) {
		t.Fatalf("new product not written:\n%s", tf.SnapshotPlain())
	}
	if !tf.WaitForPlain("product added", 3*time.Second) {
		t.Fatalf("expected success toast:\n%s", tf.SnapshotPlain())
	}
}

func TestAddRejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()
	tf := startWorkspaceApp(t, "-entity", "products")

	_ = tf.Send("a")
	if !tf.WaitForPlain("Add product", 2*time.Second) {
		t.Fatalf("expected add dialog:\n%s", tf.SnapshotPlain())
	}
	tf.ClearBuffer()
	_ = tf.Send("\x13")
	if !tf.WaitForPlain("Required", 3*time.Second) {
		t.Fatalf("expected field errors:\n%s", tf.SnapshotPlain())
	}
}
