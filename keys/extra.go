package keys

import (
	"github.com/hyphanet/corelib/compress"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/primitives"
)

const ExtraBytesLength = 5

// ChkExtraBytes packs the CHK extra-bytes trailer:
// [reserved=0, crypto_algo, flags(bit1=is_control_doc), compression_hi, compression_lo].
func ChkExtraBytes(algo primitives.CryptoAlgorithm, isControlDoc bool, compAlgo compress.Algorithm) []byte {
	out := make([]byte, ExtraBytesLength)
	out[0] = 0
	out[1] = byte(algo)
	if isControlDoc {
		out[2] = 0x02
	}
	out[3] = byte(uint16(compAlgo) >> 8)
	out[4] = byte(uint16(compAlgo) & 0xFF)
	return out
}

// ParseChkExtraBytes tolerates only length >= 5; shorter inputs are
// rejected as a possible legacy key.
func ParseChkExtraBytes(extra []byte) (algo primitives.CryptoAlgorithm, isControlDoc bool, compAlgo compress.Algorithm, err error) {
	if len(extra) < ExtraBytesLength {
		return 0, false, 0, herrors.MalformedURI("CHK extra bytes too short (maybe legacy key)", nil)
	}
	algo = primitives.CryptoAlgorithm(extra[1])
	if !algo.Valid() {
		return 0, false, 0, herrors.Unsupported("CHK crypto algorithm")
	}
	isControlDoc = extra[2]&0x02 != 0
	compAlgo = compress.Algorithm(int16(extra[3])<<8 | int16(extra[4]))
	return algo, isControlDoc, compAlgo, nil
}

// SskExtraBytes packs the SSK extra-bytes trailer:
// [ssk_version=1, insert_flag, crypto_algo, reserved_hi=0, reserved_lo=1].
func SskExtraBytes(insert bool, algo primitives.CryptoAlgorithm) []byte {
	out := make([]byte, ExtraBytesLength)
	out[0] = 1
	if insert {
		out[1] = 1
	}
	out[2] = byte(algo)
	out[3] = 0
	out[4] = 1
	return out
}

// ParseSskExtraBytes only parses byte 2 (crypto_algo) on decode.
func ParseSskExtraBytes(extra []byte) (primitives.CryptoAlgorithm, error) {
	if len(extra) < ExtraBytesLength {
		return 0, herrors.MalformedURI("SSK extra bytes too short (maybe legacy key)", nil)
	}
	algo := primitives.CryptoAlgorithm(extra[2])
	if !algo.Valid() {
		return 0, herrors.Unsupported("SSK crypto algorithm")
	}
	return algo, nil
}
