package model

import "github.com/dexprofile/pkg/profile"

// DexSummary describes one dex file inside a decoded profile.
type DexSummary struct {
	Name        string `json:"name"`
	Checksum    uint32 `json:"checksum"`
	MethodTable int    `json:"method_table,omitempty"`
	Classes     int    `json:"classes"`
	Methods     int    `json:"methods"`
	HotMethods  int    `json:"hot_methods"`
	Startup     int    `json:"startup_methods"`
	PostStartup int    `json:"post_startup_methods"`
}

// ProfileSummary is the human-facing digest of a decoded profile, used by
// the dump command and stored alongside catalog records.
type ProfileSummary struct {
	Format      string       `json:"format"`
	DexFiles    []DexSummary `json:"dex_files"`
	TotalClass  int          `json:"total_classes"`
	TotalMethod int          `json:"total_methods"`
	TotalHot    int          `json:"total_hot_methods"`
}

// Summarize builds a ProfileSummary from a decoded profile.
func Summarize(p *profile.Profile, format string) *ProfileSummary {
	s := &ProfileSummary{Format: format}
	for _, e := range p.Entries() {
		d := DexSummary{
			Name:        e.File.Name,
			Checksum:    e.File.Checksum,
			MethodTable: e.File.MethodCount,
			Classes:     len(e.Data.Classes),
			Methods:     len(e.Data.Methods),
		}
		for _, flags := range e.Data.Methods {
			if flags.Has(profile.FlagHot) {
				d.HotMethods++
			}
			if flags.Has(profile.FlagStartup) {
				d.Startup++
			}
			if flags.Has(profile.FlagPostStartup) {
				d.PostStartup++
			}
		}
		s.TotalClass += d.Classes
		s.TotalMethod += d.Methods
		s.TotalHot += d.HotMethods
		s.DexFiles = append(s.DexFiles, d)
	}
	return s
}
