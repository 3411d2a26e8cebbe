package pprof

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileTypes(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		types, err := ParseProfileTypes("")
		require.NoError(t, err)
		assert.Equal(t, DefaultProfileTypes(), types)
	})

	t.Run("List", func(t *testing.T) {
		types, err := ParseProfileTypes("heap, Goroutine,mutex")
		require.NoError(t, err)
		assert.Equal(t, []ProfileType{ProfileHeap, ProfileGoroutine, ProfileMutex}, types)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseProfileTypes("cpu,threads")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown profile type")
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("DisabledSkipsChecks", func(t *testing.T) {
		cfg := &Config{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("BadMode", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Mode = "socket"
		assert.Error(t, cfg.Validate())
	})

	t.Run("CPUDurationMustFitInterval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Interval = 5 * time.Second
		cfg.CPUDuration = 10 * time.Second
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "less than interval")
	})

	t.Run("HTTPNeedsAddr", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Mode = ModeHTTP
		cfg.Addr = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("Defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestWriterPrunesOldSnapshots(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, 2)
	require.NoError(t, w.EnsureDirs([]ProfileType{ProfileHeap}))

	for i := 0; i < 4; i++ {
		_, err := w.Write(ProfileHeap, []byte{byte(i)})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	files, err := w.ListFiles(ProfileHeap)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	// The survivors are the newest snapshots.
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, data[0], byte(2))
	}
}

func TestWriterListMissingDir(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "absent"), 5)
	files, err := w.ListFiles(ProfileGoroutine)
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestSnapshot(t *testing.T) {
	for _, pt := range []ProfileType{ProfileHeap, ProfileGoroutine, ProfileAllocs} {
		data, err := snapshot(pt)
		require.NoError(t, err, "profile %s", pt)
		assert.NotEmpty(t, data)
	}

	_, err := snapshot(ProfileType("bogus"))
	assert.Error(t, err)
}

func TestCollectorFileMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.OutputDir = t.TempDir()
	cfg.Profiles = []ProfileType{ProfileGoroutine}
	cfg.Interval = time.Second

	c, err := NewCollector(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Start())

	assert.Error(t, c.Start(), "second start must be rejected")

	// Collect once directly rather than waiting out the ticker.
	c.collectAll(t.Context())

	require.NoError(t, c.Stop())
	assert.NoError(t, c.Stop(), "stop is idempotent")

	files, err := c.Writer().ListFiles(ProfileGoroutine)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
