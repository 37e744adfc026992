package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, suffix string) {
	t.Helper()
	content := "title:\n  suffix: \"" + suffix + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".headsync.yml")
	writeConfig(t, path, " - Old")

	watcher, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	var mu sync.Mutex
	var got []string
	watcher.AddHandler(func(cfg *Config) {
		mu.Lock()
		got = append(got, cfg.Title.Suffix)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	// Let the watcher settle before modifying the file.
	time.Sleep(50 * time.Millisecond)
	writeConfig(t, path, " - New")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == " - New"
	}, 5*time.Second, 25*time.Millisecond)
}

func TestWatcher_InvalidFileKeepsPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".headsync.yml")
	writeConfig(t, path, " - Old")

	watcher, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	var mu sync.Mutex
	calls := 0
	watcher.AddHandler(func(*Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(":\tbroken"), 0644))

	// The reload fails and no handler runs.
	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".headsync.yml")
	writeConfig(t, path, " - Old")

	watcher, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	var mu sync.Mutex
	calls := 0
	watcher.AddHandler(func(*Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestWatcher_StopIsSafe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".headsync.yml")
	writeConfig(t, path, " - Old")

	watcher, err := NewWatcher(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx))
	cancel()

	assert.NoError(t, watcher.Stop())
}
