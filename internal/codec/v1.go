package codec

import (
	"fmt"

	"github.com/dexprofile/pkg/profile"
)

// V1 layout, uncompressed, header and body emitted per dex file in profile
// order:
//
//	uint8   dex file count
//	per dex file:
//	  uint16  name byte length
//	  uint16  class set size
//	  uint16  hot method count
//	  uint32  checksum
//	  name bytes
//	  hot method region (delta uint16 + inline-cache uint16 per method)
//	  class region (delta uint16 per class)
//
// V1 records neither method table sizes nor startup flags: every serialized
// method is implicitly hot, and decoded dex files carry a zero MethodCount.

func encodeV1(w *Writer, p *profile.Profile) error {
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

		w.WriteUint16(uint16(len(e.File.Name)))
		w.WriteUint16(uint16(len(e.Data.Classes)))
		w.WriteUint16(uint16(len(hot)))
		w.WriteUint32(e.File.Checksum)
		w.WriteString(e.File.Name)

		if err := writeHotMethodRegion(w, hot); err != nil {
			return err
		}
		if err := writeClassRegion(w, e.Data.Classes); err != nil {
			return err
		}
	}
	return nil
}

func decodeV1(r *Reader) (*profile.Profile, error) {
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

		dex := b.Dex(profile.DexFile{Name: name, Checksum: checksum})
		if err := readHotMethodRegionCounted(r, int(hotCount), 0, dex); err != nil {
			return nil, err
		}
		if err := readClassRegion(r, int(classCount), dex); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
