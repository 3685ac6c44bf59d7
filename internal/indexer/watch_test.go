package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatch_RebuildsOnMarkdownChange(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "blog"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(context.Context) error {
			calls.Add(1)
			fired <- struct{}{}
			return nil
		}, 50*time.Millisecond)
	}()

	// Give the watcher time to register directories.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "blog", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "blog", "post.md"), []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatalf("rebuild was not triggered")
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("burst should be debounced into one rebuild, got %d", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Watch did not stop on cancel")
	}
}
