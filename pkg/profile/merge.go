package profile

import "fmt"

// Merge combines several profiles into one. Dex files are matched by name;
// class sets are unioned and method flags are OR-ed. A name appearing with
// two different checksums indicates profiles captured against different
// builds and is an error. Dex file order follows first appearance.
func Merge(profiles ...*Profile) (*Profile, error) {
	b := NewBuilder()
	byName := make(map[string]*DexBuilder)

	for _, p := range profiles {
		for _, e := range p.Entries() {
			db, ok := byName[e.File.Name]
			if !ok {
				db = b.Dex(e.File)
				byName[e.File.Name] = db
			} else {
				if db.file.Checksum != e.File.Checksum {
					return nil, fmt.Errorf("dex %q: checksum mismatch between profiles (0x%08x vs 0x%08x)",
						e.File.Name, db.file.Checksum, e.File.Checksum)
				}
				if e.File.MethodCount > db.file.MethodCount {
					db.file.MethodCount = e.File.MethodCount
				}
			}
			for _, c := range e.Data.Classes {
				db.AddClass(c)
			}
			for idx, flags := range e.Data.Methods {
				db.AddMethod(idx, flags)
			}
		}
	}

	return b.Build(), nil
}
