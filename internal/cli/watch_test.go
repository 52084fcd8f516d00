package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchRerunsOnChange(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, file, func() { runs <- struct{}{} })
	}()

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	waitRun("initial run")

	// a burst of writes collapses into one run
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte(`{"components": []}`), 0o644))
	}
	waitRun("re-run after change")

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(file), "other.txt"), []byte("x"), 0o644))
	select {
	case <-runs:
		t.Fatal("unexpected run for an unrelated file")
	case <-time.After(3 * watchDebounce):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
