package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesAudioChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "album"), 0755))

	var calls atomic.Int32
	w := NewWatcher(root, 50*time.Millisecond, func() { calls.Add(1) }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let the watcher register directories before writing
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "album", "t.mp3"), []byte{byte(i)}, 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_Relevant(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0, func() {}, nil)
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"audio write", fsnotify.Event{Name: "/m/a.FLAC", Op: fsnotify.Write}, true},
		{"text write", fsnotify.Event{Name: "/m/a.txt", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "/m/a.mp3", Op: fsnotify.Chmod}, false},
		{"removed folder", fsnotify.Event{Name: "/m/album", Op: fsnotify.Remove}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestWatcher_RequiresCallback(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0, nil, nil)
	assert.Error(t, w.Run(context.Background()))
}
