// Package block implements the block codec: the content-hash CHK
// encode/decode pipeline and the signed-subspace SSK encode/decode
// pipeline, built on top of packages keys, compress, and primitives.
package block

import "github.com/hyphanet/corelib/keys"

const (
	// DataLength is every block's fixed data-area size. Shorter payloads
	// are padded with cryptographically random bytes before encryption.
	DataLength = 32768

	// ChkHeadersLength is CHK's fixed header size: block_hash_algo(2) ||
	// hmac(32) || length(2).
	ChkHeadersLength = 36

	// SskSignedPreludeLength is the unencrypted, signed prefix of an SSK
	// block's headers: hash_id(2) || sym_cipher_id(2) || eh_docname(32).
	SskSignedPreludeLength = 36
	// SskEncryptedHeadersLength is the Rijndael-256/CFB-encrypted region
	// following the signed prelude: data_decrypt_key(32) ||
	// length_with_metadata_flag(2) || compression_algo(2).
	SskEncryptedHeadersLength = 36
	// SskSigRLength/SskSigSLength are the DSA signature components
	// appended after the encrypted headers.
	SskSigRLength = 32
	SskSigSLength = 32
	// SskTotalHeadersLength is 36 (prelude) + 36 (encrypted headers) +
	// 32 (R) + 32 (S) = 136.
	SskTotalHeadersLength = SskSignedPreludeLength + SskEncryptedHeadersLength + SskSigRLength + SskSigSLength

	// SskSignedLength is the span of header bytes the DSA signature
	// covers directly (prelude + encrypted headers); the data hash is
	// appended before hashing.
	SskSignedLength = SskSignedPreludeLength + SskEncryptedHeadersLength

	hashIDSHA256 = 1
)

// NodeChkBlock is a content-hash block as the network stores it: fixed
// 32768-byte data, 36-byte headers, NodeChk routing identity.
type NodeChkBlock struct {
	Data    []byte // 32768 bytes
	Headers []byte // 36 bytes
	Key     keys.NodeChk
}

// NodeSskBlock is a signed-subspace block: fixed 32768-byte data,
// 136-byte headers (signed prelude + encrypted headers + signature),
// NodeSsk routing identity.
type NodeSskBlock struct {
	Data    []byte // 32768 bytes
	Headers []byte // 136 bytes
	Key     keys.NodeSsk
}
