package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hyphanet/corelib/herrors"
)

var errOverflow = errors.New("compress: decompressed output exceeds size cap")

// The length prefix prepended to every framed payload is 2 or 4 bytes
// wide; Config.ShortPrefix selects between them.
const (
	shortPrefixWidth = 2
	longPrefixWidth  = 4
)

// Config configures Compress.
type Config struct {
	// DontCompress, when true, skips straight to the fallback
	// uncompressed path.
	DontCompress bool
	// Precompressed marks the input as already compressed under
	// PrecompressedAlgo; Compress only size-checks and frames it.
	Precompressed     bool
	PrecompressedAlgo Algorithm
	// MaxBeforeCompression upper-bounds the raw input size.
	MaxBeforeCompression int64
	// MaxAfterCompression upper-bounds the framed (prefix included)
	// output size.
	MaxAfterCompression int64
	// ShortPrefix selects a 2-byte length prefix instead of 4.
	ShortPrefix bool
	// Descriptor is the caller's comma-separated codec preference list
	// (see ParseDescriptor).
	Descriptor string
}

func (c Config) prefixWidth() int64 {
	if c.ShortPrefix {
		return shortPrefixWidth
	}
	return longPrefixWidth
}

// Result is what Compress produces: the framed (length-prefixed) bytes
// and the algorithm actually used.
type Result struct {
	Framed    []byte
	Algorithm Algorithm
}

// Compress runs the compression pipeline: precompressed passthrough,
// then auto-selection across cfg.Descriptor in order, falling back to
// an uncompressed frame if nothing fits.
func Compress(data []byte, cfg Config) (Result, error) {
	if cfg.MaxBeforeCompression > 0 && int64(len(data)) > cfg.MaxBeforeCompression {
		return Result{}, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonInputTooLarge,
			fmt.Errorf("input length %d exceeds max %d", len(data), cfg.MaxBeforeCompression))
	}

	prefixWidth := cfg.prefixWidth()
	budget := cfg.MaxAfterCompression - prefixWidth
	if budget < 0 {
		budget = 0
	}

	if cfg.Precompressed {
		if cfg.PrecompressedAlgo < 0 {
			return Result{}, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonCompressFailed,
				fmt.Errorf("precompressed input needs a concrete algorithm, got %s", cfg.PrecompressedAlgo))
		}
		if int64(len(data)) > budget {
			return Result{}, herrors.TooBig(int64(len(data)) + prefixWidth)
		}
		return Result{Framed: frame(data, int64(len(data)), prefixWidth), Algorithm: cfg.PrecompressedAlgo}, nil
	}

	if !cfg.DontCompress {
		order, err := ParseDescriptor(cfg.Descriptor)
		if err != nil {
			return Result{}, err
		}
		for _, algo := range order {
			c, ok := lookup(algo)
			if !ok || !c.encodeSupported() {
				continue
			}
			compressed, err := c.compress(data)
			if err != nil {
				continue
			}
			if int64(len(compressed)) <= budget {
				return Result{Framed: frame(compressed, int64(len(data)), prefixWidth), Algorithm: algo}, nil
			}
		}
	}

	if int64(len(data)) > budget {
		return Result{}, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonCompressFailed,
			fmt.Errorf("no codec produced output within %d bytes and raw input (%d bytes) does not fit either", budget, len(data)))
	}
	return Result{Framed: frame(data, int64(len(data)), prefixWidth), Algorithm: None}, nil
}

func frame(payload []byte, origLen int64, prefixWidth int64) []byte {
	out := make([]byte, prefixWidth+int64(len(payload)))
	if prefixWidth == shortPrefixWidth {
		binary.BigEndian.PutUint16(out, uint16(origLen))
	} else {
		binary.BigEndian.PutUint32(out, uint32(origLen))
	}
	copy(out[prefixWidth:], payload)
	return out
}

// Decompress reads the origLen prefix, rejects it against maxLength
// before decoding anything, looks up the codec, and streams into a
// size-capped buffer.
func Decompress(framed []byte, algo Algorithm, maxLength int64, shortPrefix bool) ([]byte, error) {
	prefixWidth := int64(longPrefixWidth)
	if shortPrefix {
		prefixWidth = shortPrefixWidth
	}
	if int64(len(framed)) < prefixWidth {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength,
			fmt.Errorf("framed data shorter than %d-byte length prefix", prefixWidth))
	}

	var origLen int64
	if shortPrefix {
		origLen = int64(binary.BigEndian.Uint16(framed))
	} else {
		origLen = int64(binary.BigEndian.Uint32(framed))
	}
	if origLen > maxLength {
		return nil, herrors.TooBig(origLen)
	}

	if algo == None {
		payload := framed[prefixWidth:]
		if int64(len(payload)) > maxLength {
			return nil, herrors.TooBig(int64(len(payload)))
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}

	c, ok := lookup(algo)
	if !ok {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonDecompress,
			fmt.Errorf("unknown compression algorithm %s", algo))
	}

	var out bytes.Buffer
	if err := c.decompress(bytes.NewReader(framed[prefixWidth:]), &out, maxLength); err != nil {
		if errors.Is(err, errOverflow) {
			return nil, herrors.TooBig(int64(out.Len()))
		}
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonDecompress, err)
	}
	return out.Bytes(), nil
}
