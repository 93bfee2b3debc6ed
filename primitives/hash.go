package primitives

import (
	"crypto/sha256"
	"hash"
	"sync"
)

// sha256Pool is a free list of SHA-256 hashers. Entries are weakly
// held and shed under memory pressure; acquire is a non-blocking pop.
// The pool is purely an allocator optimization, never a correctness
// requirement (every caller gets a freshly Reset hasher and must
// Release it when done).
var sha256Pool = sync.Pool{
	New: func() any { return sha256.New() },
}

// AcquireSHA256 returns a reset SHA-256 hasher from the pool.
func AcquireSHA256() hash.Hash {
	h := sha256Pool.Get().(hash.Hash)
	h.Reset()
	return h
}

// ReleaseSHA256 returns a hasher to the pool. Callers must not use h
// after calling this.
func ReleaseSHA256(h hash.Hash) {
	sha256Pool.Put(h)
}

// SHA256 hashes data using a pooled hasher and returns the 32-byte
// digest.
func SHA256(data ...[]byte) []byte {
	h := AcquireSHA256()
	defer ReleaseSHA256(h)
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
