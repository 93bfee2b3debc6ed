package block

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/hyphanet/corelib/compress"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/keys"
	"github.com/hyphanet/corelib/primitives"
)

// EncodeChkParams configures a CHK encode. Decryption, if nil, is
// derived from content (the content-hash property). Precompressed marks
// Data as already compressed under PrecompressedAlgo, skipping the
// descriptor-driven codec selection.
type EncodeChkParams struct {
	Data              []byte
	AsMetadata        bool
	DontCompress      bool
	Precompressed     bool
	PrecompressedAlgo compress.Algorithm
	Descriptor        string
	Decryption        []byte
	CryptoAlgo        primitives.CryptoAlgorithm
	Filename          string
}

// EncodeChkResult bundles the encoded network block and the
// client-visible key that addresses and decrypts it.
type EncodeChkResult struct {
	Block *NodeChkBlock
	Chk   *keys.Chk
}

// EncodeChk runs the CHK encode pipeline: compress, pad to the fixed
// block size, derive the decryption key from content if the caller
// supplied none, HMAC the padded plaintext and length into the tag that
// doubles as the cipher IV, encrypt, and hash headers plus ciphertext
// into the routing key.
func EncodeChk(p EncodeChkParams) (*EncodeChkResult, error) {
	compressed, err := compress.Compress(p.Data, compress.Config{
		DontCompress:         p.DontCompress,
		Precompressed:        p.Precompressed,
		PrecompressedAlgo:    p.PrecompressedAlgo,
		MaxBeforeCompression: math.MaxInt64,
		MaxAfterCompression:  DataLength,
		ShortPrefix:          true,
		Descriptor:           p.Descriptor,
	})
	if err != nil {
		return nil, err
	}

	var payload []byte
	if compressed.Algorithm == compress.None {
		// The uncompressed case carries no 2-byte prefix inside the
		// block: decode returns plain_data[..length] with no framing to
		// strip.
		payload = compressed.Framed[2:]
	} else {
		payload = compressed.Framed
	}
	if len(payload) > DataLength {
		return nil, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonInputTooLarge, nil)
	}
	realLength := len(payload)

	padded := make([]byte, DataLength)
	copy(padded, payload)
	if realLength < DataLength {
		tail, err := primitives.RandomBytes(DataLength - realLength)
		if err != nil {
			return nil, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonInternalCrypto, err)
		}
		copy(padded[realLength:], tail)
	}

	decryption := p.Decryption
	if decryption == nil {
		decryption = primitives.SHA256(padded)
	}
	if len(decryption) != keys.RoutingKeyLength {
		return nil, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}

	lengthField := make([]byte, 2)
	binary.BigEndian.PutUint16(lengthField, uint16(realLength))

	tag := primitives.HMACSHA256(decryption, padded, lengthField)

	algo := p.CryptoAlgo
	if !algo.Valid() {
		return nil, herrors.Unsupported("crypto algorithm")
	}
	ivLen := algo.IVLength()
	stream, err := primitives.NewEncryptStream(algo, decryption, tag[:ivLen])
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonInternalCrypto, err)
	}

	plain := append(append([]byte(nil), padded...), lengthField...)
	ciphertext := make([]byte, len(plain))
	stream.XORKeyStream(ciphertext, plain)

	ciphertextData := ciphertext[:DataLength]
	ciphertextLength := ciphertext[DataLength:]

	headers := make([]byte, ChkHeadersLength)
	headers[0] = 0
	headers[1] = hashIDSHA256
	copy(headers[2:34], tag)
	copy(headers[34:36], ciphertextLength)

	routing := primitives.SHA256(headers, ciphertextData)

	nodeKey, err := keys.NewNodeChk(routing, algo)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeCHK, herrors.ReasonInternalCrypto, err)
	}

	chk, err := keys.NewChk(routing, decryption, algo, p.AsMetadata, compressed.Algorithm, p.Filename)
	if err != nil {
		return nil, err
	}

	return &EncodeChkResult{
		Block: &NodeChkBlock{Data: ciphertextData, Headers: headers, Key: nodeKey},
		Chk:   chk,
	}, nil
}

// NewNodeChkBlock validates and wraps a fetched CHK block, verifying
// that its routing key equals SHA-256(headers || data) unless
// dontVerify is set. A mismatch means corruption or a substituted
// block: the data is not what the key names.
func NewNodeChkBlock(data, headers []byte, nodeKey keys.NodeChk, dontVerify bool) (*NodeChkBlock, error) {
	if len(data) != DataLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}
	if len(headers) != ChkHeadersLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}
	if !dontVerify {
		computed := primitives.SHA256(headers, data)
		if !bytes.Equal(computed, nodeKey.Routing()) {
			return nil, herrors.VerifyFailed(herrors.KeyTypeCHK, "routing key does not match block contents", nil)
		}
	}
	return &NodeChkBlock{
		Data:    append([]byte(nil), data...),
		Headers: append([]byte(nil), headers...),
		Key:     nodeKey,
	}, nil
}

// DecodeChkParams configures a CHK decode. MaxLength caps the
// decompressed output; Decompress, when false, returns the raw (still
// possibly compressed-and-framed) payload.
type DecodeChkParams struct {
	Block      *NodeChkBlock
	Chk        *keys.Chk
	MaxLength  int64
	Decompress bool
}

// DecodeChk inverts EncodeChk: validate the block under its routing
// key, decrypt, verify HMAC and length, then optionally decompress.
func DecodeChk(p DecodeChkParams) ([]byte, error) {
	if p.Chk.Decryption == nil {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonMissingKey, nil)
	}
	headers := p.Block.Headers
	if len(headers) != ChkHeadersLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}
	if len(p.Block.Data) != DataLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}

	// The HMAC below only proves the decryption key; this binds the
	// block to the routing key the URI actually names.
	computed := primitives.SHA256(headers, p.Block.Data)
	if !bytes.Equal(computed, p.Chk.Routing) {
		return nil, herrors.VerifyFailed(herrors.KeyTypeCHK, "routing key does not match block contents", nil)
	}

	tag := headers[2:34]
	ciphertextLength := headers[34:36]

	algo := p.Chk.CryptoAlgo
	ivLen := algo.IVLength()
	stream, err := primitives.NewDecryptStream(algo, p.Chk.Decryption, tag[:ivLen])
	if err != nil {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonInternalCrypto, err)
	}

	ciphertext := append(append([]byte(nil), p.Block.Data...), ciphertextLength...)
	plain := make([]byte, len(ciphertext))
	stream.XORKeyStream(plain, ciphertext)

	plainData := plain[:DataLength]
	plainLength := plain[DataLength:]

	// The HMAC is checked before the length field: a wrong key decrypts
	// the length to garbage as well, and must report HmacMismatch.
	wantTag := primitives.HMACSHA256(p.Chk.Decryption, plainData, plainLength)
	if !bytes.Equal(wantTag, tag) {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonHmacMismatch, nil)
	}

	length := binary.BigEndian.Uint16(plainLength)
	if length > DataLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeCHK, herrors.ReasonBadLength, nil)
	}

	payload := plainData[:length]
	if !p.Decompress || p.Chk.Compression == compress.None {
		return append([]byte(nil), payload...), nil
	}
	return compress.Decompress(payload, p.Chk.Compression, p.MaxLength, true)
}
