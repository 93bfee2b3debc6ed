package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// CryptoAlgorithm selects the block cipher construction. Stored as a
// single byte in a URI's extra bytes.
type CryptoAlgorithm byte

const (
	// AESPCFB256SHA256 selects Rijndael-256 in CFB mode, IV width 32.
	AESPCFB256SHA256 CryptoAlgorithm = 2
	// AESCTR256SHA256 selects AES (128-bit block) in CTR mode with a
	// 256-bit key, IV width 16.
	AESCTR256SHA256 CryptoAlgorithm = 3
)

// IVLength returns the IV width this algorithm's HMAC-derived tag is
// truncated to.
func (a CryptoAlgorithm) IVLength() int {
	switch a {
	case AESPCFB256SHA256:
		return Rijndael256BlockSize
	case AESCTR256SHA256:
		return aes.BlockSize
	default:
		return 0
	}
}

// Valid reports whether a is a recognized crypto algorithm.
func (a CryptoAlgorithm) Valid() bool {
	return a == AESPCFB256SHA256 || a == AESCTR256SHA256
}

// NewEncryptStream returns a cipher.Stream that XORs plaintext into
// ciphertext under the given key/algorithm/IV. CTR streams are their own
// inverse; CFB streams are not, so decryption must call
// NewDecryptStream instead.
func NewEncryptStream(algo CryptoAlgorithm, key, iv []byte) (cipher.Stream, error) {
	switch algo {
	case AESCTR256SHA256:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		if len(iv) != aes.BlockSize {
			return nil, fmt.Errorf("primitives: AES-CTR IV must be %d bytes, got %d", aes.BlockSize, len(iv))
		}
		return cipher.NewCTR(block, iv), nil
	case AESPCFB256SHA256:
		block, err := NewRijndael256(key)
		if err != nil {
			return nil, err
		}
		if len(iv) != Rijndael256BlockSize {
			return nil, fmt.Errorf("primitives: Rijndael-256 CFB IV must be %d bytes, got %d", Rijndael256BlockSize, len(iv))
		}
		return cipher.NewCFBEncrypter(block, iv), nil
	default:
		return nil, fmt.Errorf("primitives: unsupported crypto algorithm %d", algo)
	}
}

// NewDecryptStream is NewEncryptStream's decode-side counterpart. For
// CTR mode this is identical to encryption; for CFB mode it is not.
func NewDecryptStream(algo CryptoAlgorithm, key, iv []byte) (cipher.Stream, error) {
	switch algo {
	case AESCTR256SHA256:
		return NewEncryptStream(algo, key, iv)
	case AESPCFB256SHA256:
		block, err := NewRijndael256(key)
		if err != nil {
			return nil, err
		}
		if len(iv) != Rijndael256BlockSize {
			return nil, fmt.Errorf("primitives: Rijndael-256 CFB IV must be %d bytes, got %d", Rijndael256BlockSize, len(iv))
		}
		return cipher.NewCFBDecrypter(block, iv), nil
	default:
		return nil, fmt.Errorf("primitives: unsupported crypto algorithm %d", algo)
	}
}

// ECBEncryptBlock encrypts exactly one Rijndael-256 block (32 bytes)
// under key with no IV/chaining, used to derive eh_docname =
// Rijndael-ECB(decryptionKey, SHA-256(docName)).
func ECBEncryptBlock(key, block []byte) ([]byte, error) {
	c, err := NewRijndael256(key)
	if err != nil {
		return nil, err
	}
	if len(block) != Rijndael256BlockSize {
		return nil, fmt.Errorf("primitives: ECB block must be %d bytes, got %d", Rijndael256BlockSize, len(block))
	}
	out := make([]byte, Rijndael256BlockSize)
	c.Encrypt(out, block)
	return out, nil
}

// ECBDecryptBlock inverts ECBEncryptBlock.
func ECBDecryptBlock(key, block []byte) ([]byte, error) {
	c, err := NewRijndael256(key)
	if err != nil {
		return nil, err
	}
	if len(block) != Rijndael256BlockSize {
		return nil, fmt.Errorf("primitives: ECB block must be %d bytes, got %d", Rijndael256BlockSize, len(block))
	}
	out := make([]byte, Rijndael256BlockSize)
	c.Decrypt(out, block)
	return out, nil
}
