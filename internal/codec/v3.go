package codec

import (
	"fmt"

	"github.com/dexprofile/pkg/compression"
	"github.com/dexprofile/pkg/profile"
)

// V3 container layout:
//
//	uint8   dex file count
//	uint32  uncompressed body size
//	uint32  compressed body size
//	compressed body (zlib-wrapped deflate stream)
//
// Decompressed body layout: all dex headers first, then all dex bodies in
// the same order. Separating headers from bodies lets a reader size every
// body region before touching any of them:
//
//	per dex file:
//	  uint16  name byte length
//	  uint16  class set size
//	  uint32  hot method region size in bytes
//	  uint32  checksum
//	  uint32  method table size
//	  name bytes
//	per dex file:
//	  hot method region (bounded by the declared byte size)
//	  class region
//	  method flag bitmap, same packing as V2
//
// The hot method region size is stored in bytes rather than records because
// inline caches make records variable-length.

func encodeV3(w *Writer, p *profile.Profile) error {
	entries := p.Entries()
	if err := checkUint8Range(len(entries), "dex file count"); err != nil {
		return err
	}

	body := NewWriter()
	hotIndices := make([][]int, len(entries))

	for i, e := range entries {
		hot := hotMethodIndices(e.Data.Methods)
		hotIndices[i] = hot
		if err := checkUint16Range(len(e.File.Name), "dex name length"); err != nil {
			return err
		}
		if err := checkUint16Range(len(e.Data.Classes), "class set size"); err != nil {
			return err
		}

		body.WriteUint16(uint16(len(e.File.Name)))
		body.WriteUint16(uint16(len(e.Data.Classes)))
		body.WriteUint32(uint32(len(hot) * hotRecordSize))
		body.WriteUint32(e.File.Checksum)
		body.WriteUint32(uint32(e.File.MethodCount))
		body.WriteString(e.File.Name)
	}

	for i, e := range entries {
		if err := writeHotMethodRegion(body, hotIndices[i]); err != nil {
			return err
		}
		if err := writeClassRegion(body, e.Data.Classes); err != nil {
			return err
		}
		bitmap, err := writeMethodBitmap(e.Data.Methods, e.File.MethodCount)
		if err != nil {
			return fmt.Errorf("dex %q: %w", e.File.Name, err)
		}
		body.WriteBytes(bitmap)
	}

	compressor := compression.NewZlibCompressor(compression.LevelBest)
	compressed, err := compressor.Compress(body.Bytes())
	if err != nil {
		return fmt.Errorf("compress profile body: %w", err)
	}

	w.WriteUint8(uint8(len(entries)))
	w.WriteUint32(uint32(body.Len()))
	w.WriteUint32(uint32(len(compressed)))
	w.WriteBytes(compressed)
	return nil
}

// v3Header is the per-dex header parsed from the front of the body.
type v3Header struct {
	file          profile.DexFile
	classCount    int
	hotRegionSize int
}

func decodeV3(r *Reader) (*profile.Profile, error) {
	dexCount, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	uncompressedSize, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	compressedSize, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	compressed, err := r.ReadBytes(int(compressedSize))
	if err != nil {
		return nil, err
	}

	compressor := compression.NewZlibCompressor(compression.LevelBest)
	bodyBytes, err := compressor.DecompressSize(compressed, int(uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompress profile body: %w", err)
	}

	body := NewReader(bodyBytes)
	headers := make([]v3Header, 0, dexCount)
	seen := make(map[string]struct{}, dexCount)
	for i := 0; i < int(dexCount); i++ {
		nameLen, err := body.ReadUint16()
		if err != nil {
			return nil, err
		}
		classCount, err := body.ReadUint16()
		if err != nil {
			return nil, err
		}
		hotRegionSize, err := body.ReadUint32()
		if err != nil {
			return nil, err
		}
		checksum, err := body.ReadUint32()
		if err != nil {
			return nil, err
		}
		methodCount, err := body.ReadUint32()
		if err != nil {
			return nil, err
		}
		name, err := body.ReadString(int(nameLen))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDex, name)
		}
		seen[name] = struct{}{}
		headers = append(headers, v3Header{
			file:          profile.DexFile{Name: name, Checksum: checksum, MethodCount: int(methodCount)},
			classCount:    int(classCount),
			hotRegionSize: int(hotRegionSize),
		})
	}

	b := profile.NewBuilder()
	for _, h := range headers {
		dex := b.Dex(h.file)
		if err := readHotMethodRegionSized(body, h.hotRegionSize, h.file.MethodCount, dex); err != nil {
			return nil, err
		}
		if err := readClassRegion(body, h.classCount, dex); err != nil {
			return nil, err
		}
		bitmap, err := body.ReadBytes(methodBitmapSize(h.file.MethodCount))
		if err != nil {
			return nil, err
		}
		readMethodBitmap(bitmap, h.file.MethodCount, dex)
	}

	if body.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after last dex body", ErrTrailingData, body.Remaining())
	}
	return b.Build(), nil
}
