package trigger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pressline/internal/config"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
)

func writeSiteConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcher_SubmitsBuildOnlyRunOnChange(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "site.yaml")
	writeSiteConfig(t, cfgPath, "base_url: https://news.example.com\n")

	sub := &recordingSubmitter{}
	d := NewDispatcher(sub, fastTriggerConfig(), nil, nil, nil)
	w, err := NewWatcher(config.WatchConfig{
		Enabled:  true,
		Paths:    []string{cfgPath},
		Debounce: "30ms",
	}, d, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	writeSiteConfig(t, cfgPath, "base_url: https://news.example.com\ncomments_enabled: true\n")

	require.Eventually(t, func() bool {
		return len(sub.requests()) == 1
	}, 3*time.Second, 10*time.Millisecond)

	req := sub.requests()[0]
	require.Equal(t, pipeline.KindChange, req.Kind)
	require.True(t, req.BuildOnly, "config changes rebuild without new articles")
	require.False(t, req.IsDraft)
}

func TestWatcher_DebouncesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "site.yaml")
	writeSiteConfig(t, cfgPath, "v: 0\n")

	sub := &recordingSubmitter{}
	d := NewDispatcher(sub, fastTriggerConfig(), nil, nil, nil)
	w, err := NewWatcher(config.WatchConfig{
		Enabled:  true,
		Paths:    []string{cfgPath},
		Debounce: "80ms",
	}, d, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	// An editor-style burst: several writes inside one debounce window.
	for i := 0; i < 5; i++ {
		writeSiteConfig(t, cfgPath, "v: 1\n")
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(sub.requests()) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond) // a second submission would land here
	require.Len(t, sub.requests(), 1, "burst collapses into one run")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "site.yaml")
	writeSiteConfig(t, cfgPath, "v: 0\n")

	sub := &recordingSubmitter{}
	d := NewDispatcher(sub, fastTriggerConfig(), nil, nil, nil)
	w, err := NewWatcher(config.WatchConfig{
		Enabled:  true,
		Paths:    []string{cfgPath},
		Debounce: "20ms",
	}, d, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	writeSiteConfig(t, filepath.Join(dir, "notes.txt"), "unrelated\n")
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, sub.requests(), "changes to other files in the directory are ignored")
}

func TestNewWatcher_RequiresPaths(t *testing.T) {
	d := NewDispatcher(&recordingSubmitter{}, fastTriggerConfig(), nil, nil, nil)
	_, err := NewWatcher(config.WatchConfig{Enabled: true}, d, nil)
	require.Error(t, err)
}
