package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/pipeline"
)

// mockProcessor records the paths it is given.
type mockProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (m *mockProcessor) ProcessFile(ctx context.Context, path string) (pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return pipeline.Result{Found: 1, Added: 1}, nil
}

func (m *mockProcessor) seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Extensions:  []string{".png", ".txt"},
		Ignore:      []string{"done/"},
		MaxFileSize: 1024,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("/nonexistent/scans", &mockProcessor{}, testConfig())
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "scan.png")
	writeFile(t, file, "x")
	_, err = New(file, &mockProcessor{}, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestHandleEvent_Filters(t *testing.T) {
	root := t.TempDir()
	proc := &mockProcessor{}
	w, err := New(root, proc, testConfig())
	require.NoError(t, err)

	keep := filepath.Join(root, "a.png")
	writeFile(t, keep, "x")
	wrongExt := filepath.Join(root, "b.doc")
	writeFile(t, wrongExt, "x")
	hidden := filepath.Join(root, ".c.png")
	writeFile(t, hidden, "x")
	ignored := filepath.Join(root, "done", "d.png")
	writeFile(t, ignored, "x")
	large := filepath.Join(root, "e.png")
	writeFile(t, large, string(make([]byte, 2048)))
	removed := filepath.Join(root, "gone.png")

	w.handleEvent(fsnotify.Event{Name: keep, Op: fsnotify.Create}, nil)
	w.handleEvent(fsnotify.Event{Name: keep, Op: fsnotify.Write}, nil)
	w.handleEvent(fsnotify.Event{Name: wrongExt, Op: fsnotify.Create}, nil)
	w.handleEvent(fsnotify.Event{Name: hidden, Op: fsnotify.Create}, nil)
	w.handleEvent(fsnotify.Event{Name: ignored, Op: fsnotify.Create}, nil)
	w.handleEvent(fsnotify.Event{Name: large, Op: fsnotify.Create}, nil)
	w.handleEvent(fsnotify.Event{Name: removed, Op: fsnotify.Remove}, nil)

	w.flushPending(context.Background())
	assert.Equal(t, []string{keep}, proc.seen(), "events for one path are coalesced")

	w.flushPending(context.Background())
	assert.Len(t, proc.seen(), 1, "flushing twice does not reprocess")
}

func TestFlushPending_Callback(t *testing.T) {
	root := t.TempDir()
	proc := &mockProcessor{}

	var got []string
	w, err := New(root, proc, testConfig(), WithEventCallback(func(relPath string, res pipeline.Result, err error) {
		assert.NoError(t, err)
		assert.Equal(t, 1, res.Added)
		got = append(got, relPath)
	}))
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "b.txt"), "x")
	writeFile(t, filepath.Join(root, "sub", "a.png"), "x")
	w.queueExisting(root)
	w.flushPending(context.Background())

	assert.Equal(t, []string{"b.txt", filepath.Join("sub", "a.png")}, got)
}

func TestStart_ProcessesNewScans(t *testing.T) {
	root := t.TempDir()
	proc := &mockProcessor{}
	w, err := New(root, proc, testConfig(), WithDebounceTime(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	scan := filepath.Join(root, "new.png")
	writeFile(t, scan, "x")

	assert.Eventually(t, func() bool {
		for _, p := range proc.seen() {
			if p == scan {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
