package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/pkg/config"
)

func newLocalStore(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewLocalStorage(t *testing.T) {
	t.Run("CreatesBaseDir", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "blobs")

		store, err := NewLocalStorage(base)
		require.NoError(t, err)
		require.NotNil(t, store)

		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("EmptyPathUsesDefault", func(t *testing.T) {
		origDir, err := os.Getwd()
		require.NoError(t, err)
		defer os.Chdir(origDir)
		os.Chdir(t.TempDir())

		store, err := NewLocalStorage("")
		require.NoError(t, err)
		assert.Equal(t, "./storage", store.GetBasePath())
	})
}

func TestLocalStorage_Upload(t *testing.T) {
	store, dir := newLocalStore(t)

	t.Run("FromReader", func(t *testing.T) {
		blob := []byte("profile blob bytes")

		err := store.Upload(context.Background(), "profiles/com.example.app/1/abc.prof", bytes.NewReader(blob))
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "profiles", "com.example.app", "1", "abc.prof"))
		require.NoError(t, err)
		assert.Equal(t, blob, written)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := store.Upload(ctx, "canceled.prof", bytes.NewReader([]byte("x")))
		assert.Error(t, err)
	})
}

func TestLocalStorage_UploadFile(t *testing.T) {
	store, dir := newLocalStore(t)

	t.Run("FromLocalFile", func(t *testing.T) {
		src := filepath.Join(dir, "session.prof")
		blob := []byte("session profile")
		require.NoError(t, os.WriteFile(src, blob, 0644))

		err := store.UploadFile(context.Background(), "profiles/session.prof", src)
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "profiles", "session.prof"))
		require.NoError(t, err)
		assert.Equal(t, blob, written)
	})

	t.Run("MissingSource", func(t *testing.T) {
		err := store.UploadFile(context.Background(), "dest.prof", "/nonexistent/profile.prof")
		assert.Error(t, err)
	})
}

func TestLocalStorage_Download(t *testing.T) {
	store, dir := newLocalStore(t)

	t.Run("ExistingKey", func(t *testing.T) {
		blob := []byte("stored profile")
		path := filepath.Join(dir, "profiles", "stored.prof")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, blob, 0644))

		rc, err := store.Download(context.Background(), "profiles/stored.prof")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, blob, data)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := store.Download(context.Background(), "missing.prof")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file not found")
	})
}

func TestLocalStorage_DownloadFile(t *testing.T) {
	store, dir := newLocalStore(t)

	t.Run("ToLocalFile", func(t *testing.T) {
		blob := []byte("profile to export")
		src := filepath.Join(dir, "src", "p.prof")
		require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
		require.NoError(t, os.WriteFile(src, blob, 0644))

		dest := filepath.Join(dir, "out", "p.prof")
		err := store.DownloadFile(context.Background(), "src/p.prof", dest)
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, blob, data)
	})

	t.Run("MissingKey", func(t *testing.T) {
		err := store.DownloadFile(context.Background(), "missing.prof", filepath.Join(dir, "out", "missing.prof"))
		assert.Error(t, err)
	})
}

func TestLocalStorage_Delete(t *testing.T) {
	store, dir := newLocalStore(t)

	t.Run("ExistingKey", func(t *testing.T) {
		path := filepath.Join(dir, "obsolete.prof")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

		require.NoError(t, store.Delete(context.Background(), "obsolete.prof"))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("MissingKeyIsNoError", func(t *testing.T) {
		assert.NoError(t, store.Delete(context.Background(), "missing.prof"))
	})
}

func TestLocalStorage_Exists(t *testing.T) {
	store, dir := newLocalStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "present.prof"), []byte("x"), 0644))

	exists, err := store.Exists(context.Background(), "present.prof")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(context.Background(), "absent.prof")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_GetURL(t *testing.T) {
	store, dir := newLocalStore(t)

	url := store.GetURL("profiles/abc.prof")
	assert.Equal(t, filepath.Join(dir, "profiles/abc.prof"), url)
}

func TestNewStorage_Local(t *testing.T) {
	t.Run("LocalType", func(t *testing.T) {
		store, err := NewStorage(&config.StorageConfig{
			Type:      string(StorageTypeLocal),
			LocalPath: t.TempDir(),
		})
		require.NoError(t, err)

		_, ok := store.(*LocalStorage)
		assert.True(t, ok)
	})

	t.Run("EmptyTypeDefaultsToLocal", func(t *testing.T) {
		store, err := NewStorage(&config.StorageConfig{
			LocalPath: t.TempDir(),
		})
		require.NoError(t, err)

		_, ok := store.(*LocalStorage)
		assert.True(t, ok)
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		_, err := NewStorage(&config.StorageConfig{
			Type:      "s3",
			LocalPath: t.TempDir(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage type")
	})

	t.Run("MissingLocalPathRejected", func(t *testing.T) {
		_, err := NewStorage(&config.StorageConfig{Type: string(StorageTypeLocal)})
		require.Error(t, err)
	})

	t.Run("CompressedBackend", func(t *testing.T) {
		store, err := NewStorage(&config.StorageConfig{
			Type:        string(StorageTypeLocal),
			LocalPath:   t.TempDir(),
			Compression: "gzip",
		})
		require.NoError(t, err)

		_, ok := store.(*CompressedStorage)
		assert.True(t, ok)
	})
}
