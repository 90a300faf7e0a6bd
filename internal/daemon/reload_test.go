package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/config"
)

func writeConfig(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestConfigWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracknoted.toml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, "[log]\nlevel = \"info\"\n", base)

	var (
		mu       sync.Mutex
		reloaded []*config.DaemonConfig
		errs     []error
	)
	w := NewConfigWatcher(path, nil)
	w.SetPollInterval(10 * time.Millisecond)
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = append(reloaded, cfg)
	})
	w.SetErrorCallback(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	initial := config.DefaultDaemonConfig()
	w.Start(context.Background(), initial)
	defer w.Stop()
	assert.Same(t, initial, w.Current())

	writeConfig(t, path, "[log]\nlevel = \"debug\"\n", base.Add(time.Minute))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "debug", w.Current().Log.Level)

	writeConfig(t, path, "[log]\nlevel = \"loud\"\n", base.Add(2*time.Minute))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The last good config stays current.
	assert.Equal(t, "debug", w.Current().Log.Level)
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "none.toml"), nil)
	w.Stop()

	w.Start(context.Background(), config.DefaultDaemonConfig())
	w.Stop()
	w.Stop()
}
