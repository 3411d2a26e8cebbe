package codec

import (
	"fmt"
	"math"
	"sort"

	"github.com/dexprofile/pkg/profile"
)

// Hot method and class regions are delta-coded: indices are written in
// ascending order as the uint16 difference from the previously written
// index, the first one being absolute. Each hot method record additionally
// carries a uint16 inline-cache count; this codec always writes zero and
// skips whatever an external producer wrote.

// hotRecordSize is the byte size of one hot method record as this codec
// writes it: a uint16 index delta plus a zero uint16 inline-cache count.
const hotRecordSize = 4

// hotMethodIndices returns the indices of methods carrying the hot flag in
// ascending order.
func hotMethodIndices(methods map[int]profile.MethodFlags) []int {
	out := make([]int, 0, len(methods))
	for idx, flags := range methods {
		if flags.Has(profile.FlagHot) {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

func checkDelta(delta int, kind string) error {
	if delta < 0 || delta > math.MaxUint16 {
		return fmt.Errorf("%s index delta %d does not fit in 16 bits", kind, delta)
	}
	return nil
}

// writeHotMethodRegion emits one record per hot method index.
func writeHotMethodRegion(w *Writer, indices []int) error {
	last := 0
	for _, idx := range indices {
		delta := idx - last
		if err := checkDelta(delta, "method"); err != nil {
			return err
		}
		w.WriteUint16(uint16(delta))
		w.WriteUint16(0) // inline caches are dropped at write time
		last = idx
	}
	return nil
}

// readHotMethodRecord reads one delta-coded record, ORs the hot flag into
// the builder, and skips the record's inline caches. methodCount of zero
// disables index validation (the oldest format does not record table sizes).
func readHotMethodRecord(r *Reader, last int, methodCount int, dex *profile.DexBuilder) (int, error) {
	delta, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	index := last + int(delta)
	if methodCount > 0 && index >= methodCount {
		return 0, fmt.Errorf("%w: method %d, table size %d", ErrIndexOutOfRange, index, methodCount)
	}
	inlineCacheCount, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	if err := skipInlineCaches(r, int(inlineCacheCount)); err != nil {
		return 0, err
	}
	dex.AddMethod(index, profile.FlagHot)
	return index, nil
}

// readHotMethodRegionCounted reads exactly count records.
func readHotMethodRegionCounted(r *Reader, count int, methodCount int, dex *profile.DexBuilder) error {
	last := 0
	for i := 0; i < count; i++ {
		index, err := readHotMethodRecord(r, last, methodCount, dex)
		if err != nil {
			return err
		}
		last = index
	}
	return nil
}

// readHotMethodRegionSized reads records until exactly regionSize bytes have
// been consumed. The region is a variable-length record sequence, so the
// loop is bounded by comparing the bytes remaining against the declared
// size rather than by counting records. Consuming past the boundary, or
// stopping short of it, is a region size mismatch.
func readHotMethodRegionSized(r *Reader, regionSize int, methodCount int, dex *profile.DexBuilder) error {
	if regionSize > r.Remaining() {
		return fmt.Errorf("%w: hot method region declares %d bytes, %d remain", ErrTruncatedInput, regionSize, r.Remaining())
	}
	expectedRemaining := r.Remaining() - regionSize
	last := 0
	for r.Remaining() > expectedRemaining {
		index, err := readHotMethodRecord(r, last, methodCount, dex)
		if err != nil {
			return err
		}
		last = index
	}
	if r.Remaining() != expectedRemaining {
		return fmt.Errorf("%w: hot method region overran its %d declared bytes", ErrRegionSizeMismatch, regionSize)
	}
	return nil
}

// writeClassRegion emits the delta-coded class index sequence. classes must
// already be sorted ascending, which the profile builder guarantees.
func writeClassRegion(w *Writer, classes []int) error {
	last := 0
	for _, idx := range classes {
		delta := idx - last
		if err := checkDelta(delta, "class"); err != nil {
			return err
		}
		w.WriteUint16(uint16(delta))
		last = idx
	}
	return nil
}

// readClassRegion reads count delta-coded class indices into the builder.
func readClassRegion(r *Reader, count int, dex *profile.DexBuilder) error {
	last := 0
	for i := 0; i < count; i++ {
		delta, err := r.ReadUint16()
		if err != nil {
			return err
		}
		index := last + int(delta)
		dex.AddClass(index)
		last = index
	}
	return nil
}

func checkUint8Range(v int, what string) error {
	if v > math.MaxUint8 {
		return fmt.Errorf("%s %d does not fit in 8 bits", what, v)
	}
	return nil
}

func checkUint16Range(v int, what string) error {
	if v > math.MaxUint16 {
		return fmt.Errorf("%s %d does not fit in 16 bits", what, v)
	}
	return nil
}
