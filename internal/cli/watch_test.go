package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	w, err := newWatcher(path, zap.New(core))
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 10 * time.Millisecond

	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() error {
			calls <- struct{}{}
			return errors.New("bad manifest")
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": "c"}`), 0o644))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration after write")
	}
	cancel()
	require.NoError(t, <-done)

	require.Eventually(t, func() bool { return logs.Len() > 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "regeneration failed", logs.All()[0].Message)
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := newWatcher(filepath.Join(t.TempDir(), "missing", "lib.json"), zap.NewNop())
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("full", func(t *testing.T) {
		path := filepath.Join(dir, "full.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`backend: cuda
lang: rust
compiler: /opt/futhark
extra_args: [--safe, -w]
package: lib
format: false
`), 0o644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "cuda", cfg.Backend)
		assert.Equal(t, "rust", cfg.Lang)
		assert.Equal(t, "/opt/futhark", cfg.Compiler)
		assert.Equal(t, []string{"--safe", "-w"}, cfg.ExtraArgs)
		assert.Equal(t, "lib", cfg.Package)
		require.NotNil(t, cfg.Format)
		assert.False(t, *cfg.Format)
	})

	t.Run("empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Nil(t, cfg.Format)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "none.yaml"))
		require.Error(t, err)
	})

	t.Run("find next to input", func(t *testing.T) {
		found, err := findConfig(filepath.Join(dir, "lib.fut"))
		require.NoError(t, err)
		assert.Empty(t, found)

		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("lang: go\n"), 0o644))
		found, err = findConfig(filepath.Join(dir, "lib.fut"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ConfigFile), found)
	})
}
