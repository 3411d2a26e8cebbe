package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodFlagsHas(t *testing.T) {
	m := FlagHot | FlagStartup
	assert.True(t, m.Has(FlagHot))
	assert.True(t, m.Has(FlagStartup))
	assert.True(t, m.Has(FlagHot|FlagStartup))
	assert.False(t, m.Has(FlagPostStartup))
	assert.False(t, m.Has(FlagHot|FlagPostStartup))
}

func TestMethodFlagsString(t *testing.T) {
	tests := []struct {
		flags MethodFlags
		want  string
	}{
		{0, "-"},
		{FlagHot, "H"},
		{FlagStartup, "S"},
		{FlagPostStartup, "P"},
		{FlagHot | FlagStartup, "HS"},
		{FlagHot | FlagStartup | FlagPostStartup, "HSP"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.flags.String())
	}
}

func samplePair() (*Profile, *Profile) {
	build := func() *Profile {
		b := NewBuilder()
		d := b.Dex(DexFile{Name: "classes.dex", Checksum: 0xDEAD, MethodCount: 64})
		d.AddClass(3)
		d.AddClass(10)
		d.AddMethod(1, FlagHot)
		d.AddMethod(2, FlagStartup)
		return b.Build()
	}
	return build(), build()
}

func TestProfileCounts(t *testing.T) {
	b := NewBuilder()
	d1 := b.Dex(DexFile{Name: "classes.dex", Checksum: 1})
	d1.AddClass(5)
	d1.AddMethod(1, FlagHot)
	d1.AddMethod(2, FlagHot|FlagStartup)
	d1.AddMethod(3, FlagPostStartup)
	d2 := b.Dex(DexFile{Name: "classes2.dex", Checksum: 2})
	d2.AddClass(7)
	d2.AddClass(8)
	d2.AddMethod(9, FlagStartup)
	p := b.Build()

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, p.HotMethodCount())
	assert.Equal(t, 4, p.MethodCount())
	assert.Equal(t, 3, p.ClassCount())
}

func TestProfileFind(t *testing.T) {
	p, _ := samplePair()

	e, ok := p.Find("classes.dex")
	assert.True(t, ok)
	assert.Equal(t, uint32(0xDEAD), e.File.Checksum)

	_, ok = p.Find("missing.dex")
	assert.False(t, ok)
}

func TestProfileEqual(t *testing.T) {
	a, b := samplePair()
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func TestProfileNotEqual(t *testing.T) {
	base, _ := samplePair()

	tests := []struct {
		name   string
		mutate func(*DexBuilder)
	}{
		{"extra class", func(d *DexBuilder) { d.AddClass(99) }},
		{"extra method", func(d *DexBuilder) { d.AddMethod(50, FlagHot) }},
		{"different flags", func(d *DexBuilder) { d.AddMethod(1, FlagPostStartup) }},
		{"different table size", func(d *DexBuilder) { d.SetMethodCount(128) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			d := b.Dex(DexFile{Name: "classes.dex", Checksum: 0xDEAD, MethodCount: 64})
			d.AddClass(3)
			d.AddClass(10)
			d.AddMethod(1, FlagHot)
			d.AddMethod(2, FlagStartup)
			tt.mutate(d)
			assert.False(t, base.Equal(b.Build()))
		})
	}
}

func TestSortedMethodIndices(t *testing.T) {
	d := DexFileData{Methods: map[int]MethodFlags{
		40: FlagHot, 2: FlagStartup, 17: FlagHot,
	}}
	assert.Equal(t, []int{2, 17, 40}, d.SortedMethodIndices())
}
