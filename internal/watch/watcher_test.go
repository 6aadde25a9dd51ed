package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return Event{}
	}
}

func TestWatcher_ReportsWritesToWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "cats.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(watched, []byte("[]"), 0644))

	w, err := New([]string{watched})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounceDelay(20 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(watched, []byte(`[{"name":"Bella","kittens":[]}]`), 0644))

	ev := waitEvent(t, w)
	assert.Equal(t, watched, ev.Path)
	assert.Equal(t, Changed, ev.Op)

	select {
	case extra := <-w.Events():
		assert.Equal(t, watched, extra.Path, "unwatched files must not be reported")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "cats.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("[]"), 0644))

	w, err := New([]string{watched})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounceDelay(200 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(watched, []byte("[]\n"), 0644))
	}

	waitEvent(t, w)
	select {
	case <-w.Events():
		t.Fatal("burst should collapse into one event")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_Removed(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "cats.md")
	require.NoError(t, os.WriteFile(watched, []byte("## Bella\n"), 0644))

	w, err := New([]string{watched})
	require.NoError(t, err)
	defer w.Close()
	w.SetDebounceDelay(20 * time.Millisecond)

	require.NoError(t, os.Remove(watched))

	ev := waitEvent(t, w)
	assert.Equal(t, Removed, ev.Op)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing-dir", "cats.json")})
	assert.Error(t, err)
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "cats.json")})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "unknown", Op(9).String())
}
