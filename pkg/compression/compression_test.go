package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData() []byte {
	// Repetitive enough to compress on every algorithm.
	return bytes.Repeat([]byte("profile-payload-0123456789"), 200)
}

func TestRoundTripAllTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
	}{
		{"zlib", TypeZlib},
		{"gzip", TypeGzip},
		{"zstd", TypeZstd},
		{"none", TypeNone},
	}

	data := testData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.typ, LevelDefault)
			require.NoError(t, err)
			defer Close(c)

			assert.Equal(t, tt.typ, c.Type())
			assert.Equal(t, tt.name, c.Name())

			compressed, err := c.Compress(data)
			require.NoError(t, err)
			if tt.typ != TypeNone {
				assert.Less(t, len(compressed), len(data))
			}

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(Type(42), LevelDefault)
	assert.ErrorContains(t, err, "unknown compression type")
}

func TestCompressionLevels(t *testing.T) {
	data := testData()
	for _, typ := range []Type{TypeZlib, TypeGzip, TypeZstd} {
		for _, level := range []Level{LevelFastest, LevelDefault, LevelBest} {
			c, err := New(typ, level)
			require.NoError(t, err)

			compressed, err := c.Compress(data)
			require.NoError(t, err)
			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
			Close(c)
		}
	}
}

func TestZlibDecompressSize(t *testing.T) {
	c := NewZlibCompressor(LevelBest)
	data := testData()

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	out, err := c.DecompressSize(compressed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)

	_, err = c.DecompressSize(compressed, len(data)-1)
	assert.ErrorContains(t, err, "size mismatch")
}

func TestZlibDecompressGarbage(t *testing.T) {
	c := NewZlibCompressor(LevelDefault)
	_, err := c.Decompress([]byte{0x00, 0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestZlibDecompressTruncated(t *testing.T) {
	c := NewZlibCompressor(LevelDefault)
	compressed, err := c.Compress(testData())
	require.NoError(t, err)

	_, err = c.Decompress(compressed[:len(compressed)/2])
	assert.Error(t, err)
}

func TestEmptyInput(t *testing.T) {
	for _, typ := range []Type{TypeZlib, TypeGzip, TypeZstd} {
		c, err := New(typ, LevelDefault)
		require.NoError(t, err)

		compressed, err := c.Compress(nil)
		require.NoError(t, err)
		out, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, out)
		Close(c)
	}
}
