package bytestore

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// ArrayBucket is an in-memory Bucket/RandomAccessBucket backed by a
// byte slice. This is the only Bucket implementation the library
// ships; on-disk persistence lives outside this module.
type ArrayBucket struct {
	mu   sync.RWMutex
	name string
	data []byte
	free bool
}

// NewArrayBucket wraps initial (copied) as a Bucket named name.
func NewArrayBucket(name string, initial []byte) *ArrayBucket {
	return &ArrayBucket{name: name, data: append([]byte(nil), initial...)}
}

func (b *ArrayBucket) Name() string { return b.name }

func (b *ArrayBucket) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int64(len(b.data))
}

func (b *ArrayBucket) Free() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.free = true
	b.data = nil
}

func (b *ArrayBucket) NewReader() (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.free {
		return nil, fmt.Errorf("bytestore: bucket %q already freed", b.name)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), b.data...))), nil
}

// arrayBucketWriter accumulates writes in a local buffer and only
// publishes them into the bucket on Close, so a writer that is never
// closed (e.g. because the caller errored out mid-write) never corrupts
// the bucket's previously committed contents.
type arrayBucketWriter struct {
	bucket *ArrayBucket
	buf    bytes.Buffer
}

func (w *arrayBucketWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *arrayBucketWriter) Close() error {
	w.bucket.mu.Lock()
	defer w.bucket.mu.Unlock()
	if w.bucket.free {
		return fmt.Errorf("bytestore: bucket %q already freed", w.bucket.name)
	}
	w.bucket.data = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

func (b *ArrayBucket) NewWriter() (io.WriteCloser, error) {
	b.mu.RLock()
	free := b.free
	b.mu.RUnlock()
	if free {
		return nil, fmt.Errorf("bytestore: bucket %q already freed", b.name)
	}
	return &arrayBucketWriter{bucket: b}, nil
}

func (b *ArrayBucket) ReadAt(p []byte, off int64) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.free {
		return 0, fmt.Errorf("bytestore: bucket %q already freed", b.name)
	}
	if off < 0 || off >= int64(len(b.data)) {
		if off == int64(len(b.data)) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("bytestore: offset %d out of range (size %d)", off, len(b.data))
	}
	n := copy(p, b.data[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (b *ArrayBucket) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.free {
		return 0, fmt.Errorf("bytestore: bucket %q already freed", b.name)
	}
	if off < 0 {
		return 0, fmt.Errorf("bytestore: negative offset %d", off)
	}
	end := off + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[off:], p)
	return len(p), nil
}

var (
	_ Bucket             = (*ArrayBucket)(nil)
	_ RandomAccessBucket = (*ArrayBucket)(nil)
)
