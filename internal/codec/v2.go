package codec

import (
	"fmt"

	"github.com/dexprofile/pkg/profile"
)

// V2 layout, uncompressed, header and body emitted per dex file like V1 but
// with two additions: the header records the dex method table size, and each
// body ends with a flag bitmap of 2 bits per method table slot (startup
// plane then post-startup plane):
//
//	uint8   dex file count
//	per dex file:
//	  uint16  name byte length
//	  uint16  class set size
//	  uint16  hot method count
//	  uint16  method table size
//	  uint32  checksum
//	  name bytes
//	  hot method region
//	  class region
//	  method flag bitmap, ceil(methodTableSize * 2 / 8) bytes
//
// The reader ORs bitmap flags into flags already recorded by the hot region,
// so a method can be simultaneously hot and startup-flagged.

func encodeV2(w *Writer, p *profile.Profile) error {
	entries := p.Entries()
	if err := checkUint8Range(len(entries), "dex file count"); err != nil {
		return err
	}
	w.WriteUint8(uint8(len(entries)))

	for _, e := range entries {
		hot := hotMethodIndices(e.Data.Methods)
		if err := checkUint16Range(len(e.File.Name), "dex name length"); err != nil {
			return err
		}
		if err := checkUint16Range(len(e.Data.Classes), "class set size"); err != nil {
			return err
		}
		if err := checkUint16Range(len(hot), "hot method count"); err != nil {
			return err
		}
		if err := checkUint16Range(e.File.MethodCount, "method table size"); err != nil {
			return err
		}

		w.WriteUint16(uint16(len(e.File.Name)))
		w.WriteUint16(uint16(len(e.Data.Classes)))
		w.WriteUint16(uint16(len(hot)))
		w.WriteUint16(uint16(e.File.MethodCount))
		w.WriteUint32(e.File.Checksum)
		w.WriteString(e.File.Name)

		if err := writeHotMethodRegion(w, hot); err != nil {
			return err
		}
		if err := writeClassRegion(w, e.Data.Classes); err != nil {
			return err
		}

		bitmap, err := writeMethodBitmap(e.Data.Methods, e.File.MethodCount)
		if err != nil {
			return fmt.Errorf("dex %q: %w", e.File.Name, err)
		}
		w.WriteBytes(bitmap)
	}
	return nil
}

func decodeV2(r *Reader) (*profile.Profile, error) {
	dexCount, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	b := profile.NewBuilder()
	seen := make(map[string]struct{}, dexCount)
	for i := 0; i < int(dexCount); i++ {
		nameLen, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		classCount, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		hotCount, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		methodCount, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		checksum, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString(int(nameLen))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDex, name)
		}
		seen[name] = struct{}{}

		dex := b.Dex(profile.DexFile{Name: name, Checksum: checksum, MethodCount: int(methodCount)})
		if err := readHotMethodRegionCounted(r, int(hotCount), int(methodCount), dex); err != nil {
			return nil, err
		}
		if err := readClassRegion(r, int(classCount), dex); err != nil {
			return nil, err
		}

		bitmap, err := r.ReadBytes(methodBitmapSize(int(methodCount)))
		if err != nil {
			return nil, err
		}
		readMethodBitmap(bitmap, int(methodCount), dex)
	}
	return b.Build(), nil
}
