package bytestore

import (
	"bytes"
	"io"
	"testing"
)

func TestArrayBucketReadWriteRoundTrip(t *testing.T) {
	b := NewArrayBucket("test", nil)

	w, err := b.NewWriter()
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := b.Size(); got != 11 {
		t.Fatalf("Size() = %d, want 11", got)
	}

	r, err := b.NewReader()
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, []byte("hello world")) {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestArrayBucketRandomAccess(t *testing.T) {
	b := NewArrayBucket("rab", make([]byte, 8))

	if _, err := b.WriteAt([]byte("XY"), 4); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	buf := make([]byte, 2)
	n, err := b.ReadAt(buf, 4)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 2 || string(buf) != "XY" {
		t.Fatalf("ReadAt got %q, want %q", buf[:n], "XY")
	}
}

func TestArrayBucketWriterNotClosedLeavesBucketUnchanged(t *testing.T) {
	b := NewArrayBucket("partial", []byte("original"))

	w, err := b.NewWriter()
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write([]byte("overwritten")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Deliberately never Close w.

	r, err := b.NewReader()
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "original" {
		t.Fatalf("got %q, want unchanged %q", got, "original")
	}
}

func TestArrayBucketFreeRejectsFurtherAccess(t *testing.T) {
	b := NewArrayBucket("freed", []byte("data"))
	b.Free()

	if _, err := b.NewReader(); err == nil {
		t.Fatal("NewReader after Free: want error, got nil")
	}
	if _, err := b.NewWriter(); err == nil {
		t.Fatal("NewWriter after Free: want error, got nil")
	}
}
