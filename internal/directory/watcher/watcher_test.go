package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gartstein/directory/internal/directory/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type recordingProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingProducer) Produce(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingProducer) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func TestFileWatcher_DebouncesWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"companies":[]}`), 0o600))

	producer := &recordingProducer{}
	fw, err := New(path, producer, 100*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, fw.Start(context.Background()))
	defer fw.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"companies":[{"id":1,"name":"x"}]}`), 0o600))
	}

	require.Eventually(t, func() bool { return len(producer.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	// no trailing duplicates after the debounce window
	time.Sleep(300 * time.Millisecond)

	got := producer.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, events.DirectoryChanged, got[0].Type)
	assert.Equal(t, path, got[0].Source)
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	producer := &recordingProducer{}
	fw, err := New(path, producer, 50*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, fw.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o600))
	time.Sleep(300 * time.Millisecond)
	fw.Stop()

	assert.Empty(t, producer.snapshot())
}

func TestFileWatcher_StartMissingDir(t *testing.T) {
	fw, err := New(filepath.Join(t.TempDir(), "nope", "db.json"), &recordingProducer{}, 0, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Error(t, fw.Start(context.Background()))
	fw.Stop()
}

func TestFileWatcher_StopsOnContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	fw, err := New(filepath.Join(t.TempDir(), "db.json"), &recordingProducer{}, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, fw.Start(ctx))

	cancel()
	select {
	case <-fw.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher loop did not exit")
	}
	fw.Stop()
}
