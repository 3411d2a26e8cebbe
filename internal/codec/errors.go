package codec

import "errors"

var (
	// ErrUnsupportedFormat is returned when the 4-byte magic tag at the head
	// of a profile matches no known format version. There is no fallback:
	// the caller must treat the profile as unusable.
	ErrUnsupportedFormat = errors.New("unsupported profile format version")

	// ErrTruncatedInput is returned when the stream ends before a required
	// fixed-size or counted field could be read.
	ErrTruncatedInput = errors.New("unexpected end of profile data")

	// ErrRegionSizeMismatch is returned when the bytes consumed by a
	// self-sized region do not match its declared size. It signals corrupt
	// input or a codec defect and is never recovered from.
	ErrRegionSizeMismatch = errors.New("read too much or too little data during profile line parse")

	// ErrTrailingData is returned when bytes remain after the expected end
	// of the logical document.
	ErrTrailingData = errors.New("unexpected trailing data after profile body")

	// ErrIndexOutOfRange is returned when a decoded method index is not
	// below the dex file's declared method table size.
	ErrIndexOutOfRange = errors.New("profile index exceeds dex table size")

	// ErrDuplicateDex is returned when two dex entries in one profile
	// carry the same name. Names key the dex files of a profile, so a
	// repeated name means corrupt input.
	ErrDuplicateDex = errors.New("duplicate dex file name in profile")
)
