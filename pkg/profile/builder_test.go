package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderSortsAndDeduplicatesClasses(t *testing.T) {
	b := NewBuilder()
	d := b.Dex(DexFile{Name: "classes.dex"})
	d.AddClass(100)
	d.AddClass(3)
	d.AddClass(7)
	d.AddClass(3)

	p := b.Build()
	assert.Equal(t, []int{3, 7, 100}, p.Entries()[0].Data.Classes)
}

func TestBuilderAccumulatesMethodFlags(t *testing.T) {
	b := NewBuilder()
	d := b.Dex(DexFile{Name: "classes.dex"})
	d.AddMethod(5, FlagHot)
	d.AddMethod(5, FlagStartup)
	d.AddMethod(5, FlagPostStartup)

	p := b.Build()
	assert.Equal(t, FlagHot|FlagStartup|FlagPostStartup, p.Entries()[0].Data.Methods[5])
}

func TestBuilderPreservesDexOrder(t *testing.T) {
	b := NewBuilder()
	names := []string{"z.dex", "a.dex", "m.dex"}
	for _, n := range names {
		b.Dex(DexFile{Name: n})
	}

	p := b.Build()
	for i, e := range p.Entries() {
		assert.Equal(t, names[i], e.File.Name)
	}
}

func TestBuilderSetMethodCount(t *testing.T) {
	b := NewBuilder()
	d := b.Dex(DexFile{Name: "classes.dex"})
	d.SetMethodCount(512)

	p := b.Build()
	assert.Equal(t, 512, p.Entries()[0].File.MethodCount)
}

func TestBuildDoesNotShareState(t *testing.T) {
	b := NewBuilder()
	d := b.Dex(DexFile{Name: "classes.dex"})
	d.AddMethod(1, FlagHot)
	p := b.Build()

	// Mutating the builder after Build must not leak into the profile.
	d.AddMethod(2, FlagHot)
	d.AddClass(9)
	assert.Equal(t, 1, p.MethodCount())
	assert.Equal(t, 0, p.ClassCount())
}
