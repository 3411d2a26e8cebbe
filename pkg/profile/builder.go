package profile

import "sort"

// Builder accumulates profile data during decoding or instrumentation and
// freezes it into an immutable Profile. The finalized Profile does not share
// collections with the builder.
type Builder struct {
	dexes []*DexBuilder
}

// NewBuilder creates an empty profile builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Dex adds a dex file and returns the builder for its payload. Dex files are
// kept in the order they are added.
func (b *Builder) Dex(file DexFile) *DexBuilder {
	db := &DexBuilder{
		file:    file,
		classes: make(map[int]struct{}),
		methods: make(map[int]MethodFlags),
	}
	b.dexes = append(b.dexes, db)
	return db
}

// Build finalizes the accumulated state into an immutable Profile.
func (b *Builder) Build() *Profile {
	p := &Profile{entries: make([]Entry, 0, len(b.dexes))}
	for _, db := range b.dexes {
		p.entries = append(p.entries, db.finalize())
	}
	return p
}

// DexBuilder accumulates the per-dex payload.
type DexBuilder struct {
	file    DexFile
	classes map[int]struct{}
	methods map[int]MethodFlags
}

// AddClass records a hot class index. Duplicates are ignored.
func (db *DexBuilder) AddClass(index int) {
	db.classes[index] = struct{}{}
}

// AddMethod ORs flags into the recorded flags for a method index. A method
// found in several regions of a wire format (hot region plus flag bitmap)
// accumulates all of its flags.
func (db *DexBuilder) AddMethod(index int, flags MethodFlags) {
	db.methods[index] |= flags
}

// SetMethodCount overrides the dex method table size. Decoders for formats
// that record the size after the dex identity use this.
func (db *DexBuilder) SetMethodCount(n int) {
	db.file.MethodCount = n
}

func (db *DexBuilder) finalize() Entry {
	classes := make([]int, 0, len(db.classes))
	for c := range db.classes {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	methods := make(map[int]MethodFlags, len(db.methods))
	for idx, flags := range db.methods {
		methods[idx] = flags
	}

	return Entry{
		File: db.file,
		Data: DexFileData{Classes: classes, Methods: methods},
	}
}
