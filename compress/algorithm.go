// Package compress implements the block codec's compression pipeline:
// codec selection, size gating, length-prefix framing, and bounded
// decompression.
package compress

import "fmt"

// Algorithm identifies a compression codec. Stored as a signed 16-bit
// field wherever it appears on the wire (CHK extra bytes, SSK encrypted
// headers).
type Algorithm int16

const (
	None       Algorithm = -1
	GZIP       Algorithm = 0
	BZIP2      Algorithm = 1
	LZMALegacy Algorithm = 2 // decode-only
	LZMA       Algorithm = 3
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "NONE"
	case GZIP:
		return "GZIP"
	case BZIP2:
		return "BZIP2"
	case LZMALegacy:
		return "LZMA_OLD"
	case LZMA:
		return "LZMA_NEW"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int16(a))
	}
}
