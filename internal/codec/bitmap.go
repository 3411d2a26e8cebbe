package codec

import (
	"fmt"

	"github.com/dexprofile/pkg/profile"
)

// The method flag bitmap packs the non-hot flags of every method table slot
// into 2 bits per method: one plane of methodCount bits for the startup
// flag, then one plane for the post-startup flag. The hot flag is never
// represented in the bitmap; it is carried by the hot method region.

// bitmapFlags lists the flags stored in the bitmap in plane order.
var bitmapFlags = []profile.MethodFlags{profile.FlagStartup, profile.FlagPostStartup}

// methodBitmapSize returns the byte size of the flag bitmap for a dex file
// with methodCount method table slots.
func methodBitmapSize(methodCount int) int {
	return (methodCount*len(bitmapFlags) + 7) / 8
}

// flagBitIndex returns the plane number for a bitmap-representable flag.
// Asking for the hot flag is a contract violation in the codec, not a
// recoverable input condition, so it panics.
func flagBitIndex(flag profile.MethodFlags) int {
	for i, f := range bitmapFlags {
		if f == flag {
			return i
		}
	}
	panic(fmt.Sprintf("flag %v has no bitmap representation", flag))
}

// methodBitmapBit returns the absolute bit position of flag for methodIndex
// in a dex file with methodCount slots.
func methodBitmapBit(flag profile.MethodFlags, methodIndex, methodCount int) int {
	return methodIndex + flagBitIndex(flag)*methodCount
}

// writeMethodBitmap packs the startup/post-startup flags of methods into a
// bitmap of methodBitmapSize(methodCount) bytes.
func writeMethodBitmap(methods map[int]profile.MethodFlags, methodCount int) ([]byte, error) {
	bitmap := make([]byte, methodBitmapSize(methodCount))
	for index, flags := range methods {
		if index >= methodCount {
			return nil, fmt.Errorf("%w: method %d, table size %d", ErrIndexOutOfRange, index, methodCount)
		}
		for _, flag := range bitmapFlags {
			if !flags.Has(flag) {
				continue
			}
			bit := methodBitmapBit(flag, index, methodCount)
			bitmap[bit/8] |= 1 << (bit % 8)
		}
	}
	return bitmap, nil
}

// readMethodBitmap ORs the flags found in bitmap into the dex builder. A
// method already seen in the hot region keeps its hot flag.
func readMethodBitmap(bitmap []byte, methodCount int, dex *profile.DexBuilder) {
	for _, flag := range bitmapFlags {
		for index := 0; index < methodCount; index++ {
			bit := methodBitmapBit(flag, index, methodCount)
			if bitmap[bit/8]&(1<<(bit%8)) != 0 {
				dex.AddMethod(index, flag)
			}
		}
	}
}
