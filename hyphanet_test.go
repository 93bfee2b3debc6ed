package corelib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hyphanet/corelib/primitives"
	"github.com/hyphanet/corelib/uri"
)

func TestEncodeDecodeCHKRoundTrip(t *testing.T) {
	data := []byte("hello\n")
	enc, err := EncodeCHK(data, EncodeOptions{DontCompress: true, CryptoAlgo: primitives.AESCTR256SHA256})
	if err != nil {
		t.Fatalf("EncodeCHK: %v", err)
	}
	if !strings.HasPrefix(enc.URI, "CHK@") {
		t.Fatalf("URI = %q, want CHK@ prefix", enc.URI)
	}

	got, err := DecodeCHK(enc.URI, enc.Block, 32768, true)
	if err != nil {
		t.Fatalf("DecodeCHK: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded %q, want %q", got, data)
	}
}

func TestEncodeDecodeCHKCompressible(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 5120)
	enc, err := EncodeCHK(data, EncodeOptions{Descriptor: "GZIP", CryptoAlgo: primitives.AESCTR256SHA256})
	if err != nil {
		t.Fatalf("EncodeCHK: %v", err)
	}
	if enc.Chk.Compression.String() != "GZIP" {
		t.Fatalf("compression = %s, want GZIP", enc.Chk.Compression)
	}

	got, err := DecodeCHK(enc.URI, enc.Block, 32768, true)
	if err != nil {
		t.Fatalf("DecodeCHK: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded length %d, want %d", len(got), len(data))
	}
}

func TestDecodeCHKWrongKeyFails(t *testing.T) {
	data := []byte("some content to encode for this test")
	enc, err := EncodeCHK(data, EncodeOptions{DontCompress: true, CryptoAlgo: primitives.AESCTR256SHA256})
	if err != nil {
		t.Fatalf("EncodeCHK: %v", err)
	}

	u, err := ParseURI(enc.URI)
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	u.Decryption[0] ^= 0xFF
	badURI := u.Serialize(uri.SerializeOptions{})

	_, err = DecodeCHK(badURI, enc.Block, 32768, true)
	if err == nil {
		t.Fatal("DecodeCHK with flipped decryption key: want error, got nil")
	}
}
