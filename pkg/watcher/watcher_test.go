package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	writeFile(t, path, "{}\n")

	w, err := New(path, WithDebounce(30*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give the watcher a moment to attach before writing.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "{\"id\":\"root\"}\n")

	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	writeFile(t, path, "a\n")

	w, err := New(path, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeFile(t, path, "burst\n")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for coalesced notification")
	}

	// The burst should have collapsed into a single token.
	select {
	case <-w.Changed():
		t.Error("expected a single coalesced notification, got a second one")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherPollingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	writeFile(t, path, "a\n")

	w, err := New(path,
		WithForcePoll(true),
		WithPollInterval(30*time.Millisecond),
		WithDebounce(20*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	// Content change with a distinct size so the poll comparison fires
	// even on coarse mtime filesystems.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "changed content\n")

	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for polled change")
	}
}

func TestStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	writeFile(t, path, "a\n")

	w, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "graph.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	w.Stop() // must not panic
}
