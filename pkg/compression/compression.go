// Package compression provides unified compression/decompression utilities.
//
// The zlib compressor is the one the binary profile container format depends
// on: the newest profile version wraps its body in a zlib-framed deflate
// stream. Gzip and zstd are used for archived profile blobs in storage.
package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Type represents the compression algorithm used.
type Type uint8

const (
	// TypeZlib uses a zlib-wrapped deflate stream (profile container format)
	TypeZlib Type = 0
	// TypeGzip uses gzip compression (archived blobs, widely compatible)
	TypeGzip Type = 1
	// TypeZstd uses zstd compression (archived blobs, faster)
	TypeZstd Type = 2
	// TypeNone represents no compression
	TypeNone Type = 255
)

// Level represents the compression level.
type Level int

const (
	// LevelFastest prioritizes speed over compression ratio
	LevelFastest Level = 1
	// LevelDefault balances speed and compression ratio
	LevelDefault Level = 3
	// LevelBest prioritizes compression ratio over speed
	LevelBest Level = 9
)

// Compressor provides a unified interface for compression operations.
type Compressor interface {
	// Compress compresses the input data
	Compress(data []byte) ([]byte, error)
	// Decompress decompresses the input data
	Decompress(data []byte) ([]byte, error)
	// Type returns the compression type
	Type() Type
	// Name returns the human-readable name of the compressor
	Name() string
}

// SizedDecompressor is implemented by compressors that can verify a declared
// uncompressed size while decompressing. Container formats that store both
// sizes use this to reject corrupt or truncated streams.
type SizedDecompressor interface {
	// DecompressSize decompresses data and fails unless the result is
	// exactly expectedSize bytes long.
	DecompressSize(data []byte, expectedSize int) ([]byte, error)
}

// ZlibCompressor implements Compressor using a zlib-wrapped deflate stream.
type ZlibCompressor struct {
	level int
}

// NewZlibCompressor creates a new zlib compressor.
func NewZlibCompressor(level Level) *ZlibCompressor {
	zlibLevel := zlib.DefaultCompression
	switch level {
	case LevelFastest:
		zlibLevel = zlib.BestSpeed
	case LevelBest:
		zlibLevel = zlib.BestCompression
	}
	return &ZlibCompressor{level: zlibLevel}
}

// Compress compresses data into a zlib stream.
func (c *ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write zlib data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses a zlib stream.
func (c *ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read zlib data: %w", err)
	}
	return out, nil
}

// DecompressSize decompresses a zlib stream and verifies the result length.
func (c *ZlibCompressor) DecompressSize(data []byte, expectedSize int) ([]byte, error) {
	out, err := c.Decompress(data)
	if err != nil {
		return nil, err
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("decompressed size mismatch: got %d bytes, declared %d", len(out), expectedSize)
	}
	return out, nil
}

// Type returns TypeZlib.
func (c *ZlibCompressor) Type() Type {
	return TypeZlib
}

// Name returns "zlib".
func (c *ZlibCompressor) Name() string {
	return "zlib"
}

// GzipCompressor implements Compressor using gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor creates a new gzip compressor.
func NewGzipCompressor(level Level) *GzipCompressor {
	gzipLevel := gzip.DefaultCompression
	switch level {
	case LevelFastest:
		gzipLevel = gzip.BestSpeed
	case LevelBest:
		gzipLevel = gzip.BestCompression
	}
	return &GzipCompressor{level: gzipLevel}
}

// Compress compresses data using gzip.
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses gzip data.
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Type returns TypeGzip.
func (c *GzipCompressor) Type() Type {
	return TypeGzip
}

// Name returns "gzip".
func (c *GzipCompressor) Name() string {
	return "gzip"
}

// ZstdCompressor implements Compressor using zstd.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor creates a new zstd compressor.
// The compressor is reusable and thread-safe for encoding.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	zstdLevel := zstd.SpeedDefault
	switch level {
	case LevelFastest:
		zstdLevel = zstd.SpeedFastest
	case LevelBest:
		zstdLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ZstdCompressor{encoder: encoder, decoder: decoder}, nil
}

// Compress compresses data using zstd.
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress decompresses zstd data.
func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Type returns TypeZstd.
func (c *ZstdCompressor) Type() Type {
	return TypeZstd
}

// Name returns "zstd".
func (c *ZstdCompressor) Name() string {
	return "zstd"
}

// Close releases resources used by the compressor.
func (c *ZstdCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// NoOpCompressor is a pass-through compressor that does not compress data.
type NoOpCompressor struct{}

// NewNoOpCompressor creates a new no-op compressor.
func NewNoOpCompressor() *NoOpCompressor {
	return &NoOpCompressor{}
}

// Compress returns the data unchanged.
func (c *NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the data unchanged.
func (c *NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// Type returns TypeNone.
func (c *NoOpCompressor) Type() Type {
	return TypeNone
}

// Name returns "none".
func (c *NoOpCompressor) Name() string {
	return "none"
}

// New creates a compressor by type and level.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZlib:
		return NewZlibCompressor(level), nil
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeNone:
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %d", t)
	}
}

// Closeable is an optional interface for compressors that hold resources.
type Closeable interface {
	Close()
}

// Close closes a compressor if it implements Closeable.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}
