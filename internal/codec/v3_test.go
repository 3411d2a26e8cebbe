package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/pkg/compression"
	"github.com/dexprofile/pkg/profile"
)

func TestV3ContainerSizes(t *testing.T) {
	// A profile large enough that the deflate body actually shrinks.
	b := profile.NewBuilder()
	d := b.Dex(profile.DexFile{Name: "base.apk!classes.dex", Checksum: 0xABCD, MethodCount: 4000})
	for i := 0; i < 1000; i++ {
		d.AddMethod(i*2, profile.FlagHot|profile.FlagStartup)
		d.AddClass(i * 3)
	}
	want := b.Build()

	data, err := Encode(want, V3)
	require.NoError(t, err)

	r := NewReader(data[MagicLen:])
	dexCount, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), dexCount)

	uncompressedSize, err := r.ReadUint32()
	require.NoError(t, err)
	compressedSize, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, int(compressedSize), r.Remaining())
	assert.Less(t, int(compressedSize), int(uncompressedSize))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestV3CorruptCompressedSize(t *testing.T) {
	data, err := Encode(sampleProfile(V3), V3)
	require.NoError(t, err)

	// Shrink the declared compressed size: the zlib stream is cut short and
	// decompression must fail rather than silently truncating.
	tampered := append([]byte(nil), data...)
	compOff := MagicLen + 1 + 4
	compSize := binary.LittleEndian.Uint32(tampered[compOff:])
	binary.LittleEndian.PutUint32(tampered[compOff:], compSize-4)

	_, err = Decode(tampered)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTrailingData)
}

func TestV3CorruptUncompressedSize(t *testing.T) {
	data, err := Encode(sampleProfile(V3), V3)
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	uncompOff := MagicLen + 1
	uncompSize := binary.LittleEndian.Uint32(tampered[uncompOff:])
	binary.LittleEndian.PutUint32(tampered[uncompOff:], uncompSize+1)

	_, err = Decode(tampered)
	assert.ErrorContains(t, err, "size mismatch")
}

// buildV3Container assembles a V3 profile around an arbitrary body, letting
// tests declare sizes the encoder would never produce.
func buildV3Container(t *testing.T, dexCount int, body []byte) []byte {
	t.Helper()
	compressed, err := compression.NewZlibCompressor(compression.LevelBest).Compress(body)
	require.NoError(t, err)

	w := NewWriter()
	w.WriteBytes(V3.Magic())
	w.WriteUint8(uint8(dexCount))
	w.WriteUint32(uint32(len(body)))
	w.WriteUint32(uint32(len(compressed)))
	w.WriteBytes(compressed)
	return w.Bytes()
}

func TestV3HotRegionSizeMismatch(t *testing.T) {
	// Declare a hot method region two bytes short of the records it holds.
	body := NewWriter()
	name := "classes.dex"
	body.WriteUint16(uint16(len(name)))
	body.WriteUint16(0)                  // no classes
	body.WriteUint32(2*hotRecordSize - 2) // declared size cuts a record in half
	body.WriteUint32(0x1234)
	body.WriteUint32(64)
	body.WriteString(name)
	require.NoError(t, writeHotMethodRegion(body, []int{1, 2}))
	body.WriteBytes(make([]byte, methodBitmapSize(64)))

	_, err := Decode(buildV3Container(t, 1, body.Bytes()))
	assert.ErrorIs(t, err, ErrRegionSizeMismatch)
}

func TestV3TrailingBodyBytes(t *testing.T) {
	// Extra bytes inside the decompressed body, after the last dex body.
	body := NewWriter()
	name := "classes.dex"
	body.WriteUint16(uint16(len(name)))
	body.WriteUint16(0)
	body.WriteUint32(0)
	body.WriteUint32(0x1234)
	body.WriteUint32(8)
	body.WriteString(name)
	body.WriteBytes(make([]byte, methodBitmapSize(8)))
	body.WriteBytes([]byte{0xAA, 0xBB})

	_, err := Decode(buildV3Container(t, 1, body.Bytes()))
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestV3MethodIndexBeyondTable(t *testing.T) {
	body := NewWriter()
	name := "classes.dex"
	body.WriteUint16(uint16(len(name)))
	body.WriteUint16(0)
	body.WriteUint32(hotRecordSize)
	body.WriteUint32(0x1234)
	body.WriteUint32(4) // table holds 4 methods
	body.WriteString(name)
	require.NoError(t, writeHotMethodRegion(body, []int{9}))
	body.WriteBytes(make([]byte, methodBitmapSize(4)))

	_, err := Decode(buildV3Container(t, 1, body.Bytes()))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestV3HeadersPrecedeBodies(t *testing.T) {
	// Two dex files: both names must appear in the body before either hot
	// region, confirming the header block/body block separation.
	b := profile.NewBuilder()
	d1 := b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 1, MethodCount: 8})
	d1.AddMethod(3, profile.FlagHot)
	d2 := b.Dex(profile.DexFile{Name: "classes2.dex", Checksum: 2, MethodCount: 8})
	d2.AddMethod(5, profile.FlagHot)

	data, err := Encode(b.Build(), V3)
	require.NoError(t, err)

	r := NewReader(data[MagicLen:])
	_, err = r.ReadUint8()
	require.NoError(t, err)
	uncompressedSize, err := r.ReadUint32()
	require.NoError(t, err)
	compressedSize, err := r.ReadUint32()
	require.NoError(t, err)
	compressed, err := r.ReadBytes(int(compressedSize))
	require.NoError(t, err)

	bodyBytes, err := compression.NewZlibCompressor(compression.LevelBest).DecompressSize(compressed, int(uncompressedSize))
	require.NoError(t, err)

	body := NewReader(bodyBytes)
	var names []string
	for i := 0; i < 2; i++ {
		nameLen, err := body.ReadUint16()
		require.NoError(t, err)
		_, err = body.ReadUint16()
		require.NoError(t, err)
		_, err = body.ReadUint32()
		require.NoError(t, err)
		_, err = body.ReadUint32()
		require.NoError(t, err)
		_, err = body.ReadUint32()
		require.NoError(t, err)
		name, err := body.ReadString(int(nameLen))
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"classes.dex", "classes2.dex"}, names)
}
