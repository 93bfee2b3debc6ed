package primitives

import (
	"bytes"
	"testing"
)

func TestRijndael256RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		key  []byte
		pt   []byte
	}{
		{"all-zero", make([]byte, 32), make([]byte, 32)},
		{"incrementing", seqBytes(32, 0), seqBytes(32, 128)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewRijndael256(tc.key)
			if err != nil {
				t.Fatalf("NewRijndael256: %v", err)
			}
			ct := make([]byte, 32)
			c.Encrypt(ct, tc.pt)
			if bytes.Equal(ct, tc.pt) {
				t.Fatalf("ciphertext equals plaintext")
			}

			pt2 := make([]byte, 32)
			c.Decrypt(pt2, ct)
			if !bytes.Equal(pt2, tc.pt) {
				t.Fatalf("decrypt did not invert encrypt: got %x want %x", pt2, tc.pt)
			}
		})
	}
}

func TestRijndael256RejectsShortKey(t *testing.T) {
	if _, err := NewRijndael256(make([]byte, 16)); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestECBBlockRoundTrip(t *testing.T) {
	key := seqBytes(32, 1)
	block := seqBytes(32, 99)

	ct, err := ECBEncryptBlock(key, block)
	if err != nil {
		t.Fatalf("ECBEncryptBlock: %v", err)
	}
	pt, err := ECBDecryptBlock(key, ct)
	if err != nil {
		t.Fatalf("ECBDecryptBlock: %v", err)
	}
	if !bytes.Equal(pt, block) {
		t.Fatalf("ECB round trip mismatch: got %x want %x", pt, block)
	}
}

func seqBytes(n int, start byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = start + byte(i)
	}
	return buf
}
