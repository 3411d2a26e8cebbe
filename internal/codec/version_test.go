package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/pkg/profile"
)

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		want    Version
		wantErr error
	}{
		{name: "v1 magic", header: []byte{'0', '0', '1', 0}, want: V1},
		{name: "v2 magic", header: []byte{'0', '0', '5', 0}, want: V2},
		{name: "v3 magic", header: []byte{'0', '1', '0', 0}, want: V3},
		{name: "unknown digits", header: []byte{'0', '0', '9', 0}, wantErr: ErrUnsupportedFormat},
		{name: "garbage", header: []byte{0xDE, 0xAD, 0xBE, 0xEF}, wantErr: ErrUnsupportedFormat},
		{name: "missing terminator", header: []byte{'0', '0', '1', '1'}, wantErr: ErrUnsupportedFormat},
		{name: "too short", header: []byte{'0', '0'}, wantErr: ErrTruncatedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DetectVersion(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestDecodeUnknownMagic(t *testing.T) {
	// A valid-looking body after an unknown tag must never be parsed.
	data := append([]byte{'9', '9', '9', 0}, 0x00)
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeEmptyProfile(t *testing.T) {
	// Zero dex files with zero body bytes is the valid shape of a profile
	// that recorded no activity.
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := Encode(profile.NewBuilder().Build(), v)
			require.NoError(t, err)

			p, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 0, p.Len())
		})
	}
}

func TestDecodeTrailingData(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := Encode(sampleProfile(v), v)
			require.NoError(t, err)

			_, err = Decode(append(data, 0xFF))
			assert.ErrorIs(t, err, ErrTrailingData)
		})
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := Encode(sampleProfile(v), v)
			require.NoError(t, err)

			_, err = Decode(data[:len(data)-3])
			assert.Error(t, err)
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("v3")
	require.NoError(t, err)
	assert.Equal(t, V3, v)

	v, err = ParseVersion("1")
	require.NoError(t, err)
	assert.Equal(t, V1, v)

	_, err = ParseVersion("v9")
	assert.Error(t, err)
}

func TestVersionMagic(t *testing.T) {
	assert.Equal(t, []byte{'0', '0', '1', 0}, V1.Magic())
	assert.Equal(t, []byte{'0', '0', '5', 0}, V2.Magic())
	assert.Equal(t, []byte{'0', '1', '0', 0}, V3.Magic())
}
