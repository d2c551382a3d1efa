package executor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchStopPreexistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, StopFilename), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w, err := WatchStop(dir, cancel, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("WatchStop: %v", err)
	}
	defer w.Close()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("pre-existing STOP file did not cancel the run")
	}
	// The STOP file is consumed so the next run starts clean.
	if _, err := os.Stat(filepath.Join(dir, StopFilename)); !os.IsNotExist(err) {
		t.Error("STOP file not removed")
	}
}

func TestWatchStopCreatedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	w, err := WatchStop(dir, cancel, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("WatchStop: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, StopFilename), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("STOP file creation did not cancel the run")
	}
}

func TestWatchStopIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := WatchStop(dir, cancel, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("WatchStop: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
		t.Fatal("unrelated file cancelled the run")
	case <-time.After(200 * time.Millisecond):
	}
}
