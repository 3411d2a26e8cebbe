// Package profile defines the in-memory model for ART method/class usage
// profiles: which classes and methods inside a set of dex files were observed
// during execution. The model is produced by runtime instrumentation or by
// decoding a persisted profile, and is consumed by ahead-of-time compilation
// tooling.
package profile

import "sort"

// MethodFlags is a bitmask describing how a method was observed.
type MethodFlags uint8

const (
	// FlagHot marks a method that was executed (JIT-compiled or sampled).
	FlagHot MethodFlags = 1 << iota
	// FlagStartup marks a method observed during the startup window.
	FlagStartup
	// FlagPostStartup marks a method observed after startup completed.
	FlagPostStartup
)

// Has reports whether all bits in f are set.
func (m MethodFlags) Has(f MethodFlags) bool {
	return m&f == f
}

// String returns a compact representation such as "HSP" for all three flags.
func (m MethodFlags) String() string {
	buf := make([]byte, 0, 3)
	if m.Has(FlagHot) {
		buf = append(buf, 'H')
	}
	if m.Has(FlagStartup) {
		buf = append(buf, 'S')
	}
	if m.Has(FlagPostStartup) {
		buf = append(buf, 'P')
	}
	if len(buf) == 0 {
		return "-"
	}
	return string(buf)
}

// DexFile identifies one dex file referenced by a profile.
type DexFile struct {
	// Name is the dex location path used as the on-disk key.
	Name string
	// Checksum is the CRC of the dex contents at capture time. Consumers
	// compare it against the installed dex before applying the profile.
	Checksum uint32
	// MethodCount is the size of the dex method table. Zero means unknown;
	// the oldest wire format does not record it.
	MethodCount int
}

// DexFileData is the per-dex payload: hot class indices and method flags.
type DexFileData struct {
	// Classes holds class table indices in ascending order without
	// duplicates.
	Classes []int
	// Methods maps method table index to the flags observed for it.
	Methods map[int]MethodFlags
}

// Entry pairs a dex file identity with its payload.
type Entry struct {
	File DexFile
	Data DexFileData
}

// Profile is the full record of dex file -> (hot classes, method flags).
// Entry order is preserved from construction; two of the three wire formats
// serialize dex files in this order.
type Profile struct {
	entries []Entry
}

// Len returns the number of dex files in the profile.
func (p *Profile) Len() int {
	return len(p.entries)
}

// Entries returns the dex file entries in insertion order. The returned
// slice and its payloads must not be modified.
func (p *Profile) Entries() []Entry {
	return p.entries
}

// Find returns the entry for the given dex name.
func (p *Profile) Find(name string) (Entry, bool) {
	for _, e := range p.entries {
		if e.File.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// HotMethodCount returns the total number of methods carrying FlagHot.
func (p *Profile) HotMethodCount() int {
	n := 0
	for _, e := range p.entries {
		for _, flags := range e.Data.Methods {
			if flags.Has(FlagHot) {
				n++
			}
		}
	}
	return n
}

// MethodCount returns the total number of flagged methods across dex files.
func (p *Profile) MethodCount() int {
	n := 0
	for _, e := range p.entries {
		n += len(e.Data.Methods)
	}
	return n
}

// ClassCount returns the total number of hot classes across dex files.
func (p *Profile) ClassCount() int {
	n := 0
	for _, e := range p.entries {
		n += len(e.Data.Classes)
	}
	return n
}

// Equal reports whether two profiles contain the same dex files in the same
// order with identical class sets and method flags.
func (p *Profile) Equal(other *Profile) bool {
	if p.Len() != other.Len() {
		return false
	}
	for i, e := range p.entries {
		o := other.entries[i]
		if e.File != o.File {
			return false
		}
		if len(e.Data.Classes) != len(o.Data.Classes) {
			return false
		}
		for j, c := range e.Data.Classes {
			if o.Data.Classes[j] != c {
				return false
			}
		}
		if len(e.Data.Methods) != len(o.Data.Methods) {
			return false
		}
		for idx, flags := range e.Data.Methods {
			if o.Data.Methods[idx] != flags {
				return false
			}
		}
	}
	return true
}

// SortedMethodIndices returns the method indices of d in ascending order.
func (d *DexFileData) SortedMethodIndices() []int {
	out := make([]int, 0, len(d.Methods))
	for idx := range d.Methods {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
