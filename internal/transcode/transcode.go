// Package transcode converts profiles between wire format versions.
package transcode

import (
	"fmt"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/pkg/profile"
)

// Result describes a completed conversion.
type Result struct {
	From codec.Version
	To   codec.Version
	// Profile is the decoded intermediate form.
	Profile *profile.Profile
	// Data is the re-encoded output, magic tag included.
	Data []byte
}

// Convert decodes data in whatever format its magic tag declares and
// re-encodes it as target. Converting to the source's own version is
// allowed and normalizes the byte layout.
func Convert(data []byte, target codec.Version) (*Result, error) {
	from, err := codec.DetectVersion(data)
	if err != nil {
		return nil, err
	}

	p, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	out, err := codec.Encode(p, target)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}

	return &Result{From: from, To: target, Profile: p, Data: out}, nil
}
