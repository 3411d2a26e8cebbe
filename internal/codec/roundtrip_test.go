package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/pkg/profile"
)

// sampleProfile builds a multi-dex profile representable in version v. V1
// does not record method table sizes or startup flags, so its sample limits
// itself to hot methods on dex files with unknown table sizes.
func sampleProfile(v Version) *profile.Profile {
	b := profile.NewBuilder()

	if v == V1 {
		d1 := b.Dex(profile.DexFile{Name: "base.apk!classes.dex", Checksum: 0x11223344})
		d1.AddMethod(1, profile.FlagHot)
		d1.AddMethod(5, profile.FlagHot)
		d1.AddMethod(300, profile.FlagHot)
		d1.AddClass(3)
		d1.AddClass(7)
		d1.AddClass(8)
		d1.AddClass(100)

		// Overlapping indices with the first dex file.
		d2 := b.Dex(profile.DexFile{Name: "base.apk!classes2.dex", Checksum: 0xCAFEBABE})
		d2.AddMethod(5, profile.FlagHot)
		d2.AddClass(7)
		return b.Build()
	}

	d1 := b.Dex(profile.DexFile{Name: "base.apk!classes.dex", Checksum: 0x11223344, MethodCount: 400})
	d1.AddMethod(1, profile.FlagHot)
	d1.AddMethod(5, profile.FlagHot|profile.FlagStartup|profile.FlagPostStartup)
	d1.AddMethod(9, profile.FlagStartup)
	d1.AddMethod(300, profile.FlagHot|profile.FlagPostStartup)
	d1.AddClass(3)
	d1.AddClass(7)
	d1.AddClass(8)
	d1.AddClass(100)

	d2 := b.Dex(profile.DexFile{Name: "base.apk!classes2.dex", Checksum: 0xCAFEBABE, MethodCount: 20})
	d2.AddMethod(5, profile.FlagStartup)
	d2.AddMethod(19, profile.FlagHot)
	d2.AddClass(7)
	return b.Build()
}

func TestRoundTripAllVersions(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			want := sampleProfile(v)

			data, err := Encode(want, v)
			require.NoError(t, err)
			assert.Equal(t, v.Magic(), data[:MagicLen])

			got, err := Decode(data)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "decoded profile differs from input")
		})
	}
}

func TestRoundTripSingleDexNoActivity(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			b := profile.NewBuilder()
			b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 1, MethodCount: methodCountFor(v, 16)})
			want := b.Build()

			data, err := Encode(want, v)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, 1, got.Len())
			assert.True(t, want.Equal(got))
		})
	}
}

func methodCountFor(v Version, n int) int {
	if v == V1 {
		return 0
	}
	return n
}

func TestRoundTripPreservesDexOrder(t *testing.T) {
	b := profile.NewBuilder()
	for _, name := range []string{"zzz.dex", "aaa.dex", "mmm.dex"} {
		d := b.Dex(profile.DexFile{Name: name, Checksum: 7, MethodCount: 4})
		d.AddMethod(0, profile.FlagHot)
	}
	want := b.Build()

	for _, v := range []Version{V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := Encode(want, v)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)

			var names []string
			for _, e := range got.Entries() {
				names = append(names, e.File.Name)
			}
			assert.Equal(t, []string{"zzz.dex", "aaa.dex", "mmm.dex"}, names)
		})
	}
}

func TestCrossVersionBodyRejected(t *testing.T) {
	// Feeding a V3 body directly to the V1 strategy (bypassing dispatch)
	// must fail deterministically instead of producing a wrong profile.
	data, err := Encode(sampleProfile(V3), V3)
	require.NoError(t, err)

	body := NewReader(data[MagicLen:])
	p, err := decodeV1(body)
	if err == nil {
		// The V1 strategy may parse some prefix of the container bytes;
		// the end-to-end contract is that it cannot round-trip the input.
		assert.False(t, sampleProfile(V3).Equal(p))
		assert.NotZero(t, body.Remaining())
	}
}

func TestDecodeRoutesOnMagicNotBody(t *testing.T) {
	// The same profile encoded in each version decodes identically through
	// the single Decode entry point.
	want := sampleProfile(V2)

	v2Data, err := Encode(want, V2)
	require.NoError(t, err)
	v3Data, err := Encode(want, V3)
	require.NoError(t, err)

	fromV2, err := Decode(v2Data)
	require.NoError(t, err)
	fromV3, err := Decode(v3Data)
	require.NoError(t, err)

	assert.True(t, fromV2.Equal(fromV3))
}

func TestEncodeV1DropsNonHotMethods(t *testing.T) {
	// V1 has no flag bitmap: methods observed only during startup cannot be
	// represented and are dropped by the downgrade.
	b := profile.NewBuilder()
	d := b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 2})
	d.AddMethod(1, profile.FlagHot)
	d.AddMethod(2, profile.FlagStartup)

	data, err := Encode(b.Build(), V1)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	entry, _ := got.Find("classes.dex")
	assert.Equal(t, map[int]profile.MethodFlags{1: profile.FlagHot}, entry.Data.Methods)
}

func TestEncodeTooManyDexFiles(t *testing.T) {
	b := profile.NewBuilder()
	for i := 0; i < 256; i++ {
		b.Dex(profile.DexFile{Name: string(rune('a'+i%26)) + string(rune('0'+i/26))})
	}
	_, err := Encode(b.Build(), V1)
	assert.Error(t, err)
}

func TestDecodeRejectsDuplicateDexName(t *testing.T) {
	// Dex file names key the entries of a profile. The builder does not
	// forbid repeats, so wire input carrying the same name twice must be
	// rejected at decode time.
	b := profile.NewBuilder()
	for i := 0; i < 2; i++ {
		d := b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 9, MethodCount: 8})
		d.AddMethod(i, profile.FlagHot)
	}
	dup := b.Build()

	for _, v := range []Version{V1, V2, V3} {
		t.Run(v.String(), func(t *testing.T) {
			data, err := Encode(dup, v)
			require.NoError(t, err)

			_, err = Decode(data)
			assert.ErrorIs(t, err, ErrDuplicateDex)
		})
	}
}
