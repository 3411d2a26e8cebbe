package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexprofile/pkg/profile"
)

func TestSummarize(t *testing.T) {
	b := profile.NewBuilder()
	d := b.Dex(profile.DexFile{Name: "classes.dex", Checksum: 0xCAFE, MethodCount: 100})
	d.AddClass(1)
	d.AddClass(2)
	d.AddMethod(10, profile.FlagHot|profile.FlagStartup)
	d.AddMethod(11, profile.FlagStartup)
	d.AddMethod(12, profile.FlagPostStartup)
	b.Dex(profile.DexFile{Name: "classes2.dex", Checksum: 0xBEEF})

	s := Summarize(b.Build(), "v2")

	assert.Equal(t, "v2", s.Format)
	require.Len(t, s.DexFiles, 2)

	first := s.DexFiles[0]
	assert.Equal(t, "classes.dex", first.Name)
	assert.Equal(t, uint32(0xCAFE), first.Checksum)
	assert.Equal(t, 100, first.MethodTable)
	assert.Equal(t, 2, first.Classes)
	assert.Equal(t, 3, first.Methods)
	assert.Equal(t, 1, first.HotMethods)
	assert.Equal(t, 2, first.Startup)
	assert.Equal(t, 1, first.PostStartup)

	assert.Equal(t, 2, s.TotalClass)
	assert.Equal(t, 3, s.TotalMethod)
	assert.Equal(t, 1, s.TotalHot)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(profile.NewBuilder().Build(), "v1")
	assert.Empty(t, s.DexFiles)
	assert.Zero(t, s.TotalMethod)
}
