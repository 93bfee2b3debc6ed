package block

import (
	"bytes"
	"crypto/dsa"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/hyphanet/corelib/compress"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/keys"
	"github.com/hyphanet/corelib/primitives"
)

// NewNodeSskBlock validates and wraps a fetched SSK block, verifying its
// DSA signature unless dontVerify is set. The block's eh_docname must
// match the node key's; a mismatch means the block belongs to a
// different document in the subspace.
func NewNodeSskBlock(data, headers []byte, nodeKey keys.NodeSsk, dontVerify bool) (*NodeSskBlock, error) {
	if len(data) != DataLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonBadLength, nil)
	}
	if len(headers) != SskTotalHeadersLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonBadLength, nil)
	}
	pubKey := nodeKey.PubKey()
	if pubKey == nil {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonMissingKey, nil)
	}

	ehDocname := headers[4:36]
	if !bytes.Equal(ehDocname, nodeKey.EhDocname()) {
		return nil, herrors.VerifyFailed(herrors.KeyTypeSSK, "eh_docname mismatch - wrong key", nil)
	}

	if !dontVerify {
		if err := verifySskSignature(data, headers, pubKey); err != nil {
			return nil, err
		}
	}

	return &NodeSskBlock{
		Data:    append([]byte(nil), data...),
		Headers: append([]byte(nil), headers...),
		Key:     nodeKey,
	}, nil
}

func verifySskSignature(data, headers []byte, pubKey *dsa.PublicKey) error {
	bufR := headers[72:104]
	bufS := headers[104:136]

	dataHash := primitives.SHA256(data)
	overallHash := primitives.SHA256(headers[:SskSignedLength], dataHash)

	r := new(big.Int).SetBytes(bufR)
	s := new(big.Int).SetBytes(bufS)

	if !dsa.Verify(pubKey, overallHash, r, s) {
		return herrors.VerifyFailed(herrors.KeyTypeSSK, "DSA signature verification failed", nil)
	}
	return nil
}

// EncodeSskParams configures an SSK encode. The insert key carries the
// subspace's private key for signing.
type EncodeSskParams struct {
	Data         []byte
	Key          *keys.InsertableSsk
	AsMetadata   bool
	DontCompress bool
	Descriptor   string
}

// EncodeSsk builds a signed SSK block: compress, pad the data area with
// random bytes, encrypt data under a fresh per-block key, pack that key
// plus length and compression fields into the encrypted-headers region
// keyed by (decryption_key, eh_docname), and DSA-sign the headers and
// data hash.
func EncodeSsk(p EncodeSskParams) (*NodeSskBlock, error) {
	if p.Key == nil || p.Key.PrivateKey == nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonMissingKey, nil)
	}

	// The length field keeps its top bit for the metadata flag, so the
	// framed payload is capped at 0x7FFF rather than the full data area.
	compressed, err := compress.Compress(p.Data, compress.Config{
		DontCompress:         p.DontCompress,
		MaxBeforeCompression: math.MaxInt64,
		MaxAfterCompression:  math.MaxInt16,
		ShortPrefix:          true,
		Descriptor:           p.Descriptor,
	})
	if err != nil {
		return nil, err
	}

	var payload []byte
	if compressed.Algorithm == compress.None {
		payload = compressed.Framed[2:]
	} else {
		payload = compressed.Framed
	}
	if len(payload) > math.MaxInt16 {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInputTooLarge, nil)
	}

	plaintext := make([]byte, DataLength)
	copy(plaintext, payload)
	if len(payload) < DataLength {
		tail, err := primitives.RandomBytes(DataLength - len(payload))
		if err != nil {
			return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
		}
		copy(plaintext[len(payload):], tail)
	}

	dataKey, err := primitives.RandomBytes(32)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	dataStream, err := primitives.NewEncryptStream(primitives.AESPCFB256SHA256, dataKey, dataKey)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	data := make([]byte, DataLength)
	dataStream.XORKeyStream(data, plaintext)

	lengthField := uint16(len(payload))
	if p.AsMetadata {
		lengthField |= 0x8000
	}

	plainHeaders := make([]byte, SskEncryptedHeadersLength)
	copy(plainHeaders[0:32], dataKey)
	binary.BigEndian.PutUint16(plainHeaders[32:34], lengthField)
	binary.BigEndian.PutUint16(plainHeaders[34:36], uint16(compressed.Algorithm))

	headerStream, err := primitives.NewEncryptStream(primitives.AESPCFB256SHA256, p.Key.Decryption, p.Key.EhDocname)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}

	headers := make([]byte, SskTotalHeadersLength)
	binary.BigEndian.PutUint16(headers[0:2], hashIDSHA256)
	binary.BigEndian.PutUint16(headers[2:4], uint16(primitives.AESPCFB256SHA256))
	copy(headers[4:36], p.Key.EhDocname)
	headerStream.XORKeyStream(headers[SskSignedPreludeLength:SskSignedLength], plainHeaders)

	dataHash := primitives.SHA256(data)
	overallHash := primitives.SHA256(headers[:SskSignedLength], dataHash)
	r, s, err := p.Key.Sign(overallHash)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	if len(rBytes) > SskSigRLength || len(sBytes) > SskSigSLength {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, nil)
	}
	copy(headers[72+SskSigRLength-len(rBytes):104], rBytes)
	copy(headers[104+SskSigSLength-len(sBytes):136], sBytes)

	nodeKey, err := p.Key.NodeKey(false)
	if err != nil {
		return nil, err
	}

	return &NodeSskBlock{Data: data, Headers: headers, Key: nodeKey}, nil
}

// DecodeSskParams configures an SSK decode. MaxLength caps the
// decompressed output (a zero cap rejects any compressed payload);
// uncompressed payloads are bounded by the block's length field alone.
type DecodeSskParams struct {
	Block          *NodeSskBlock
	Ssk            *keys.Ssk
	MaxLength      int64
	DontDecompress bool
}

// DecodeSskResult carries the recovered plaintext plus the metadata
// flag from the top bit of the length field.
type DecodeSskResult struct {
	Data       []byte
	IsMetadata bool
}

// DecodeSsk inverts EncodeSsk: decrypt the encrypted-headers region
// under (decryption_key, eh_docname), recover the per-block data key,
// decrypt the data under (data_key, data_key), then optionally
// decompress.
func DecodeSsk(p DecodeSskParams) (*DecodeSskResult, error) {
	headers := p.Block.Headers
	if len(headers) != SskTotalHeadersLength {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonBadLength, nil)
	}

	encryptedHeaders := headers[SskSignedPreludeLength : SskSignedPreludeLength+SskEncryptedHeadersLength]
	headerStream, err := primitives.NewDecryptStream(primitives.AESPCFB256SHA256, p.Ssk.Decryption, p.Ssk.EhDocname)
	if err != nil {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	decryptedHeaders := make([]byte, len(encryptedHeaders))
	headerStream.XORKeyStream(decryptedHeaders, encryptedHeaders)

	dataDecryptKey := decryptedHeaders[0:32]
	lengthField := binary.BigEndian.Uint16(decryptedHeaders[32:34])
	compressionAlgo := compress.Algorithm(int16(decryptedHeaders[34])<<8 | int16(decryptedHeaders[35]))

	isMetadata := lengthField&0x8000 != 0
	length := lengthField &^ 0x8000

	dataStream, err := primitives.NewDecryptStream(primitives.AESPCFB256SHA256, dataDecryptKey, dataDecryptKey)
	if err != nil {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	plaintext := make([]byte, len(p.Block.Data))
	dataStream.XORKeyStream(plaintext, p.Block.Data)

	if int(length) > len(plaintext) {
		return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonBadLength, nil)
	}

	if p.DontDecompress {
		if compressionAlgo >= 0 {
			if int(length) < 2 {
				return nil, herrors.CannotDecode(herrors.KeyTypeSSK, herrors.ReasonBadLength, nil)
			}
			return &DecodeSskResult{Data: append([]byte(nil), plaintext[2:length]...), IsMetadata: isMetadata}, nil
		}
		return &DecodeSskResult{Data: append([]byte(nil), plaintext[:length]...), IsMetadata: isMetadata}, nil
	}

	if compressionAlgo >= 0 {
		maxLen := p.MaxLength
		if maxLen > DataLength {
			maxLen = DataLength
		}
		out, err := compress.Decompress(plaintext[:length], compressionAlgo, maxLen, true)
		if err != nil {
			return nil, err
		}
		return &DecodeSskResult{Data: out, IsMetadata: isMetadata}, nil
	}
	return &DecodeSskResult{Data: append([]byte(nil), plaintext[:length]...), IsMetadata: isMetadata}, nil
}
