package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, content string, at time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestDocumentWatcherReportsOutsideChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	touch(t, path, "{}", time.Now().Add(-time.Hour))

	w, err := NewDocumentWatcher(zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })
	require.NoError(t, w.Watch(path))

	// Other files in the directory are not reported
	touch(t, filepath.Join(dir, "other.json"), "{}", time.Now())

	touch(t, path, `{"markers":[]}`, time.Now())
	select {
	case got := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("change not reported")
	}
}

func TestDocumentWatcherQuietWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	touch(t, path, "{}", time.Now().Add(-time.Hour))

	w, err := NewDocumentWatcher(zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan string, 4)
	w.OnChange(func(p string) { changed <- p })
	require.NoError(t, w.Watch(path))

	require.NoError(t, w.Quiet(func() error {
		touch(t, path, `{"saved":true}`, time.Now())
		return nil
	}))

	select {
	case <-changed:
		t.Fatal("own write reported as outside change")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDocumentWatcherCloseTwice(t *testing.T) {
	w, err := NewDocumentWatcher(zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Equal(t, "", w.Path())
}
