package block

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hyphanet/corelib/compress"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/primitives"
)

func encodeSmall(t *testing.T, data []byte, algo primitives.CryptoAlgorithm) *EncodeChkResult {
	t.Helper()
	res, err := EncodeChk(EncodeChkParams{
		Data:       data,
		Descriptor: "GZIP,BZIP2,LZMA_NEW",
		CryptoAlgo: algo,
	})
	if err != nil {
		t.Fatalf("EncodeChk: %v", err)
	}
	return res
}

func TestChkEncodeDecodeRoundTripCTR(t *testing.T) {
	data := []byte("hello hyphanet, this is a small test payload")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)

	out, err := DecodeChk(DecodeChkParams{Block: res.Block, Chk: res.Chk, MaxLength: 1 << 20, Decompress: true})
	if err != nil {
		t.Fatalf("DecodeChk: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got %q want %q", out, data)
	}
}

func TestChkEncodeDecodeRoundTripCFB(t *testing.T) {
	data := bytes.Repeat([]byte("compressible compressible compressible "), 50)
	res := encodeSmall(t, data, primitives.AESPCFB256SHA256)

	out, err := DecodeChk(DecodeChkParams{Block: res.Block, Chk: res.Chk, MaxLength: 1 << 20, Decompress: true})
	if err != nil {
		t.Fatalf("DecodeChk: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip did not reproduce original compressible data")
	}
	if res.Chk.Compression == compress.None {
		t.Fatal("expected compressible input to actually compress")
	}
}

func TestChkSelfConsistency(t *testing.T) {
	data := []byte("self consistency payload")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)

	wantRouting := primitives.SHA256(res.Block.Headers, res.Block.Data)
	if !bytes.Equal(wantRouting, res.Block.Key.Routing()) {
		t.Fatal("routing key does not equal SHA-256(headers || ciphertext)")
	}
	if !bytes.Equal(wantRouting, res.Chk.Routing) {
		t.Fatal("ClientChk routing does not match NodeChk routing")
	}
}

func TestChkDeterministicContentHash(t *testing.T) {
	data := []byte("identical payload, identical key")
	a := encodeSmall(t, data, primitives.AESCTR256SHA256)
	b := encodeSmall(t, data, primitives.AESCTR256SHA256)

	if !bytes.Equal(a.Chk.Decryption, b.Chk.Decryption) {
		t.Fatal("identical padded payloads must derive identical decryption keys")
	}
	if !bytes.Equal(a.Block.Key.Routing(), b.Block.Key.Routing()) {
		t.Fatal("identical payloads must produce identical routing keys (content-hash property)")
	}
	if !bytes.Equal(a.Block.Data, b.Block.Data) {
		t.Fatal("identical payloads must produce byte-identical ciphertext")
	}
}

func TestChkDecodeRejectsTamperedData(t *testing.T) {
	data := []byte("tamper with me")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)
	res.Block.Data[0] ^= 0xff

	_, err := DecodeChk(DecodeChkParams{Block: res.Block, Chk: res.Chk, MaxLength: 1 << 20, Decompress: true})
	var verifyErr *herrors.VerifyFailedError
	if err == nil {
		t.Fatal("expected decode to fail after bit flip")
	}
	if !errors.As(err, &verifyErr) {
		t.Fatalf("expected routing verification failure, got %v", err)
	}
}

func TestChkDecodeWrongKeyHmacMismatch(t *testing.T) {
	data := []byte("decode me with the wrong key")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)
	// The block is untouched, so routing still matches; only the HMAC
	// can catch the flipped decryption key.
	res.Chk.Decryption[0] ^= 0x01

	_, err := DecodeChk(DecodeChkParams{Block: res.Block, Chk: res.Chk, MaxLength: 1 << 20, Decompress: true})
	var decErr *herrors.CannotDecodeError
	if err == nil {
		t.Fatal("expected decode to fail with a wrong decryption key")
	}
	if !errors.As(err, &decErr) || decErr.Reason != herrors.ReasonHmacMismatch {
		t.Fatalf("expected HMAC mismatch error, got %v", err)
	}
}

func TestNewNodeChkBlockVerifiesRouting(t *testing.T) {
	data := []byte("routing binds the block")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)

	if _, err := NewNodeChkBlock(res.Block.Data, res.Block.Headers, res.Block.Key, false); err != nil {
		t.Fatalf("NewNodeChkBlock on an untampered block: %v", err)
	}

	tampered := append([]byte(nil), res.Block.Headers...)
	tampered[2] ^= 0x01
	_, err := NewNodeChkBlock(res.Block.Data, tampered, res.Block.Key, false)
	var verifyErr *herrors.VerifyFailedError
	if err == nil {
		t.Fatal("expected tampered headers to fail routing verification")
	}
	if !errors.As(err, &verifyErr) {
		t.Fatalf("expected VerifyFailedError, got %v", err)
	}
}

func TestChkDecodeRequiresDecryptionKey(t *testing.T) {
	data := []byte("no key provided")
	res := encodeSmall(t, data, primitives.AESCTR256SHA256)
	res.Chk.Decryption = nil

	_, err := DecodeChk(DecodeChkParams{Block: res.Block, Chk: res.Chk, MaxLength: 1 << 20, Decompress: true})
	var decErr *herrors.CannotDecodeError
	if !errors.As(err, &decErr) || decErr.Reason != herrors.ReasonMissingKey {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}

func TestChkEncodeRejectsOversizedInput(t *testing.T) {
	huge := bytes.Repeat([]byte{0xAB}, DataLength*2)
	_, err := EncodeChk(EncodeChkParams{
		Data:         huge,
		DontCompress: true,
		CryptoAlgo:   primitives.AESCTR256SHA256,
	})
	if err == nil {
		t.Fatal("expected encode to reject input that does not fit even uncompressed")
	}
}
