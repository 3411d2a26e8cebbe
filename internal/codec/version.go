// Package codec implements the versioned binary serialization of ART usage
// profiles. Each of the three historical wire formats is a self-contained
// strategy selected by the 4-byte magic tag at the head of the stream.
package codec

import (
	"fmt"

	"github.com/dexprofile/pkg/profile"
)

// Version identifies one profile wire format.
type Version uint8

const (
	// V1 is the oldest format: uncompressed, per-dex header+body pairs,
	// hot methods only (no flag bitmap, no method table size).
	V1 Version = iota + 1
	// V2 extends V1 with the dex method table size and a per-dex
	// startup/post-startup flag bitmap. Still uncompressed.
	V2
	// V3 is the current format: all dex headers first, then all bodies,
	// the whole body wrapped in a zlib-compressed container with explicit
	// uncompressed and compressed sizes.
	V3
)

// String returns the version tag as it appears in user-facing output.
func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}

// ParseVersion converts a user-supplied version name to a Version.
func ParseVersion(s string) (Version, error) {
	switch s {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	case "v3", "3":
		return V3, nil
	default:
		return 0, fmt.Errorf("unknown profile version %q (valid: v1, v2, v3)", s)
	}
}

// MagicLen is the length of the format magic tag at the head of a profile.
const MagicLen = 4

// format is one wire-format strategy: a magic tag plus the encoder and
// decoder for that version's exact byte layout.
type format struct {
	version Version
	magic   [MagicLen]byte
	encode  func(w *Writer, p *profile.Profile) error
	decode  func(r *Reader) (*profile.Profile, error)
}

// formats is the closed set of known wire formats. Magic tags are ASCII
// digits terminated by NUL.
var formats = []format{
	{version: V1, magic: [MagicLen]byte{'0', '0', '1', 0}, encode: encodeV1, decode: decodeV1},
	{version: V2, magic: [MagicLen]byte{'0', '0', '5', 0}, encode: encodeV2, decode: decodeV2},
	{version: V3, magic: [MagicLen]byte{'0', '1', '0', 0}, encode: encodeV3, decode: decodeV3},
}

func formatFor(v Version) (format, error) {
	for _, f := range formats {
		if f.version == v {
			return f, nil
		}
	}
	return format{}, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, v)
}

// Magic returns the 4-byte tag written at the head of a profile of version v.
func (v Version) Magic() []byte {
	f, err := formatFor(v)
	if err != nil {
		panic(err)
	}
	return append([]byte(nil), f.magic[:]...)
}

// DetectVersion matches the first MagicLen bytes of header against the known
// format tags. An unrecognized tag is a hard error; the codec never guesses.
func DetectVersion(header []byte) (Version, error) {
	if len(header) < MagicLen {
		return 0, fmt.Errorf("%w: need %d magic bytes, have %d", ErrTruncatedInput, MagicLen, len(header))
	}
	for _, f := range formats {
		if f.magic == [MagicLen]byte(header[:MagicLen]) {
			return f.version, nil
		}
	}
	return 0, fmt.Errorf("%w: magic %q", ErrUnsupportedFormat, header[:MagicLen])
}

// Decode reads a complete profile from data: it detects the format from the
// magic tag, delegates body parsing to the matching strategy, and rejects
// any trailing bytes beyond what the strategy consumed.
func Decode(data []byte) (*profile.Profile, error) {
	version, err := DetectVersion(data)
	if err != nil {
		return nil, err
	}
	f, err := formatFor(version)
	if err != nil {
		return nil, err
	}

	r := NewReader(data)
	if _, err := r.ReadBytes(MagicLen); err != nil {
		return nil, err
	}
	p, err := f.decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", version, err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after %s body", ErrTrailingData, r.Remaining(), version)
	}
	return p, nil
}

// Encode serializes p in the given wire format, magic tag included.
func Encode(p *profile.Profile, version Version) ([]byte, error) {
	f, err := formatFor(version)
	if err != nil {
		return nil, err
	}

	w := NewWriter()
	w.WriteBytes(f.magic[:])
	if err := f.encode(w, p); err != nil {
		return nil, fmt.Errorf("encode %s profile: %w", version, err)
	}
	return w.Bytes(), nil
}
