package primitives

import "crypto/rand"

// RandomBytes returns n cryptographically random bytes, used both to
// generate fresh key material and to pad a block payload's tail up to
// the fixed 32768-byte block size.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
