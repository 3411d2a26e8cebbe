package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dexprofile/pkg/compression"
)

// CompressedStorage wraps another backend and applies archival compression
// to every blob. Keys are stored unchanged; the payload bytes are the
// compressed stream. Profile blobs in the newest wire format are already
// deflated, so this is mainly useful for V1/V2 blobs and mixed buckets.
type CompressedStorage struct {
	backend    Storage
	compressor compression.Compressor
}

// NewCompressedStorage wraps backend with the given compressor.
func NewCompressedStorage(backend Storage, compressor compression.Compressor) *CompressedStorage {
	return &CompressedStorage{backend: backend, compressor: compressor}
}

// wrapCompression wraps backend according to the configured algorithm name.
// An empty name or "none" returns the backend unchanged.
func wrapCompression(backend Storage, algorithm string) (Storage, error) {
	switch algorithm {
	case "", "none":
		return backend, nil
	case "gzip":
		return NewCompressedStorage(backend, compression.NewGzipCompressor(compression.LevelDefault)), nil
	case "zstd":
		c, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd compressor: %w", err)
		}
		return NewCompressedStorage(backend, c), nil
	default:
		return nil, fmt.Errorf("unsupported storage compression: %s", algorithm)
	}
}

// Upload compresses the stream and uploads it to the backend.
func (s *CompressedStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read upload data: %w", err)
	}
	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress %s blob: %w", s.compressor.Name(), err)
	}
	return s.backend.Upload(ctx, key, bytes.NewReader(compressed))
}

// UploadFile compresses a local file and uploads it to the backend.
func (s *CompressedStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()
	return s.Upload(ctx, key, file)
}

// Download fetches the blob from the backend and decompresses it.
func (s *CompressedStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.backend.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	compressed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s blob: %w", s.compressor.Name(), err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// DownloadFile downloads and decompresses the blob into a local file.
func (s *CompressedStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	rc, err := s.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Delete deletes the object at the specified key.
func (s *CompressedStorage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Exists checks if an object exists at the specified key.
func (s *CompressedStorage) Exists(ctx context.Context, key string) (bool, error) {
	return s.backend.Exists(ctx, key)
}

// GetURL returns the URL for the specified key.
func (s *CompressedStorage) GetURL(key string) string {
	return s.backend.GetURL(key)
}
