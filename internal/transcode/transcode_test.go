package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/pkg/profile"
)

func sampleProfile(t *testing.T) *profile.Profile {
	t.Helper()

	b := profile.NewBuilder()
	dex := b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 0xCAFEBABE, MethodCount: 64})
	dex.AddClass(3)
	dex.AddClass(17)
	dex.AddMethod(5, profile.FlagHot)
	dex.AddMethod(9, profile.FlagHot|profile.FlagStartup)
	dex.AddMethod(12, profile.FlagStartup|profile.FlagPostStartup)
	return b.Build()
}

func TestConvert_V2ToV3(t *testing.T) {
	p := sampleProfile(t)
	data, err := codec.Encode(p, codec.V2)
	require.NoError(t, err)

	res, err := Convert(data, codec.V3)
	require.NoError(t, err)
	assert.Equal(t, codec.V2, res.From)
	assert.Equal(t, codec.V3, res.To)

	decoded, err := codec.Decode(res.Data)
	require.NoError(t, err)
	assert.True(t, p.Equal(decoded))
}

func TestConvert_V3ToV1_DropsNonHotMethods(t *testing.T) {
	p := sampleProfile(t)
	data, err := codec.Encode(p, codec.V3)
	require.NoError(t, err)

	res, err := Convert(data, codec.V1)
	require.NoError(t, err)

	decoded, err := codec.Decode(res.Data)
	require.NoError(t, err)

	// The oldest format carries hot methods only.
	assert.Equal(t, p.HotMethodCount(), decoded.MethodCount())
	assert.Equal(t, p.ClassCount(), decoded.ClassCount())
}

func TestConvert_SameVersion(t *testing.T) {
	p := sampleProfile(t)
	data, err := codec.Encode(p, codec.V3)
	require.NoError(t, err)

	res, err := Convert(data, codec.V3)
	require.NoError(t, err)
	assert.Equal(t, data, res.Data)
}

func TestConvert_UnknownMagic(t *testing.T) {
	res, err := Convert([]byte{'9', '9', '9', 0, 1, 2}, codec.V3)
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
	assert.Nil(t, res)
}

func TestConvert_Truncated(t *testing.T) {
	res, err := Convert([]byte{'0', '1'}, codec.V2)
	assert.ErrorIs(t, err, codec.ErrTruncatedInput)
	assert.Nil(t, res)
}

func TestConvert_CorruptBody(t *testing.T) {
	p := sampleProfile(t)
	data, err := codec.Encode(p, codec.V2)
	require.NoError(t, err)

	res, err := Convert(data[:len(data)-3], codec.V3)
	assert.Error(t, err)
	assert.Nil(t, res)
}
