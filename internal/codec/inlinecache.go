package codec

// Inline caches are per-call-site runtime type observations recorded by the
// runtime next to each hot method. This codec never writes them (the
// inline-cache count emitted for every method is zero) and discards them on
// read, but externally produced profiles may carry them, so the skip routine
// is a living part of the format contract.

const (
	// inlineCacheMissingTypes marks a call site whose observed types could
	// not be resolved. No class list follows the marker.
	inlineCacheMissingTypes = 6
	// inlineCacheMegamorphic marks a call site that saw too many distinct
	// types to record. No class list follows the marker.
	inlineCacheMegamorphic = 7
)

// skipInlineCaches advances past count inline-cache records. Each record is
// a dex pc (uint16) followed by a class map size byte; the two sentinel
// sizes terminate the record immediately, any other size is followed by that
// many uint16 class type indices.
func skipInlineCaches(r *Reader, count int) error {
	for i := 0; i < count; i++ {
		if _, err := r.ReadUint16(); err != nil { // dex pc
			return err
		}
		mapSize, err := r.ReadUint8()
		if err != nil {
			return err
		}
		if mapSize == inlineCacheMissingTypes || mapSize == inlineCacheMegamorphic {
			continue
		}
		for j := 0; j < int(mapSize); j++ {
			if _, err := r.ReadUint16(); err != nil { // class type index
				return err
			}
		}
	}
	return nil
}
