// Package bytestore defines the sized byte-container abstraction the
// block codec borrows for I/O. Implementations are owned by the
// caller; the codec only borrows them for the duration of a call.
package bytestore

import "io"

// Bucket is a sized, named byte container: the Go-idiomatic analogue of
// Freenet's Bucket interface. Implementations are owned by the caller;
// the codec only reads or writes through the interface for the duration
// of one encode/decode call and never calls Free itself.
type Bucket interface {
	// NewReader returns a fresh reader over the bucket's current
	// contents. Each call starts from byte 0.
	NewReader() (io.ReadCloser, error)
	// NewWriter returns a writer that replaces the bucket's contents.
	// Closing the writer finalizes Size().
	NewWriter() (io.WriteCloser, error)
	// Size reports the number of bytes currently stored.
	Size() int64
	// Name identifies the bucket for diagnostics; not wire data.
	Name() string
	// Free releases any resources backing the bucket. Safe to call more
	// than once.
	Free()
}

// RandomAccessBucket is Bucket plus positional access, for callers
// that decrypt or decompress directly into arbitrary offsets of a
// block's data area instead of via a single linear stream.
type RandomAccessBucket interface {
	Bucket
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
}
