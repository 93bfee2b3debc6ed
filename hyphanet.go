// Package corelib ties together packages uri, keys, block, compress,
// and primitives into the Uri -> ClientKey -> Block <-> bytes edges
// application code actually calls. It is a pure in-process codec with
// no storage of its own.
package corelib

import (
	"github.com/hyphanet/corelib/block"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/keys"
	"github.com/hyphanet/corelib/primitives"
	"github.com/hyphanet/corelib/uri"
)

// ParseURI parses a wire-format URI string.
func ParseURI(s string) (uri.Uri, error) {
	return uri.Parse(s, false)
}

// AccessKey builds the typed ClientKey a Uri names.
func AccessKey(u uri.Uri) (keys.ClientKey, error) {
	return u.CreateAccessKey()
}

// EncodeOptions is the convenience subset of block.EncodeChkParams the
// facade exposes. CryptoAlgo defaults to AES-CTR when left zero;
// callers needing the precompressed path construct
// block.EncodeChkParams directly.
type EncodeOptions struct {
	AsMetadata   bool
	DontCompress bool
	Descriptor   string
	CryptoAlgo   primitives.CryptoAlgorithm
	Filename     string
}

// EncodedCHK bundles a freshly encoded CHK block with both its
// insert-capable and fetch-only URIs.
type EncodedCHK struct {
	Block      *block.NodeChkBlock
	Chk        *keys.Chk
	URI        string
	RequestURI string
}

// EncodeCHK runs the full CHK encode pipeline and wraps the result's
// key as both an insert URI (carries the decryption key) and a request
// URI (everything but the decryption key).
func EncodeCHK(data []byte, opts EncodeOptions) (*EncodedCHK, error) {
	algo := opts.CryptoAlgo
	if algo == 0 {
		algo = primitives.AESCTR256SHA256
	}
	result, err := block.EncodeChk(block.EncodeChkParams{
		Data:         data,
		AsMetadata:   opts.AsMetadata,
		DontCompress: opts.DontCompress,
		Descriptor:   opts.Descriptor,
		CryptoAlgo:   algo,
		Filename:     opts.Filename,
	})
	if err != nil {
		return nil, err
	}

	insertURI, err := uri.ToURI(result.Chk)
	if err != nil {
		return nil, err
	}
	requestURI, err := uri.ToRequestURI(result.Chk)
	if err != nil {
		return nil, err
	}

	return &EncodedCHK{
		Block:      result.Block,
		Chk:        result.Chk,
		URI:        insertURI.Serialize(uri.SerializeOptions{}),
		RequestURI: requestURI.Serialize(uri.SerializeOptions{}),
	}, nil
}

// DecodeCHK parses uriStr, derives the ClientChk, and decodes blk's
// plaintext. uriStr must carry a decryption key (an insert or full URI,
// not a request-only one missing it) or decode fails with
// CannotDecode(MissingKey).
func DecodeCHK(uriStr string, blk *block.NodeChkBlock, maxLength int64, decompress bool) ([]byte, error) {
	u, err := ParseURI(uriStr)
	if err != nil {
		return nil, err
	}
	if u.Type != herrors.KeyTypeCHK {
		return nil, herrors.MalformedURI("not a CHK uri", nil)
	}
	ck, err := AccessKey(u)
	if err != nil {
		return nil, err
	}
	chk := ck.(*keys.Chk)
	return block.DecodeChk(block.DecodeChkParams{
		Block:      blk,
		Chk:        chk,
		MaxLength:  maxLength,
		Decompress: decompress,
	})
}

// DecodeSSK parses uriStr, derives the ClientSsk, and decodes blk's
// plaintext.
func DecodeSSK(uriStr string, blk *block.NodeSskBlock, maxLength int64, decompress bool) (*block.DecodeSskResult, error) {
	u, err := ParseURI(uriStr)
	if err != nil {
		return nil, err
	}
	if u.Type != herrors.KeyTypeSSK {
		return nil, herrors.MalformedURI("not an SSK uri", nil)
	}
	ck, err := AccessKey(u)
	if err != nil {
		return nil, err
	}
	ssk := ck.(*keys.Ssk)
	return block.DecodeSsk(block.DecodeSskParams{
		Block:          blk,
		Ssk:            ssk,
		MaxLength:      maxLength,
		DontDecompress: !decompress,
	})
}
