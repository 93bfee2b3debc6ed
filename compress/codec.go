package compress

import (
	"bytes"
	"errors"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz/lzma"
)

// codec is the compression registry's unit of work: compress a whole
// buffer into another buffer, or decompress a stream into a bounded
// sink. encodeSupported is false for decode-only entries (LZMALegacy).
type codec interface {
	id() Algorithm
	encodeSupported() bool
	compress(data []byte) ([]byte, error)
	decompress(r io.Reader, sink io.Writer, maxLength int64) error
}

// registry is the closed codec set: GZIP, BZIP2, and LZMA (current,
// id 3, encode+decode), plus a decode-only legacy LZMA entry (id 2).
var registry = map[Algorithm]codec{
	GZIP:       gzipCodec{},
	BZIP2:      bzip2Codec{},
	LZMA:       lzmaCodec{},
	LZMALegacy: lzmaLegacyCodec{},
}

func lookup(a Algorithm) (codec, bool) {
	c, ok := registry[a]
	return c, ok
}

// --- GZIP, via klauspost/compress/gzip -------------------------------
//
// The gzip header OS byte must be 0 on the wire regardless of host
// platform; the writer defaults it to 255 (unknown), so it is forced
// both via the Header field and a direct byte patch at offset 9.
type gzipCodec struct{}

func (gzipCodec) id() Algorithm         { return GZIP }
func (gzipCodec) encodeSupported() bool { return true }

func (gzipCodec) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	w.Header.OS = 0
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 9 {
		out[9] = 0
	}
	return out, nil
}

func (gzipCodec) decompress(r io.Reader, sink io.Writer, maxLength int64) error {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gr.Close()
	return copyBounded(sink, gr, maxLength)
}

// --- BZIP2, via dsnet/compress/bzip2 ----------------------------------

type bzip2Codec struct{}

func (bzip2Codec) id() Algorithm         { return BZIP2 }
func (bzip2Codec) encodeSupported() bool { return true }

func (bzip2Codec) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (bzip2Codec) decompress(r io.Reader, sink io.Writer, maxLength int64) error {
	br, err := bzip2.NewReader(r, nil)
	if err != nil {
		return err
	}
	defer br.Close()
	return copyBounded(sink, br, maxLength)
}

// --- LZMA (current, id 3), via ulikunitz/xz/lzma ----------------------
//
// Uses the classic single-stream LZMA1 format (5-byte properties header
// + 8-byte uncompressed size), not the .xz container.

type lzmaCodec struct{}

func (lzmaCodec) id() Algorithm         { return LZMA }
func (lzmaCodec) encodeSupported() bool { return true }

func (lzmaCodec) compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lzmaCodec) decompress(r io.Reader, sink io.Writer, maxLength int64) error {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return err
	}
	return copyBounded(sink, lr, maxLength)
}

// --- legacy LZMA (id 2), decode-only -----------------------------------
//
// Historical streams decode with the same LZMA1 reader as the current
// codec; the only enforced difference is the encode refusal.

type lzmaLegacyCodec struct{}

func (lzmaLegacyCodec) id() Algorithm         { return LZMALegacy }
func (lzmaLegacyCodec) encodeSupported() bool { return false }

func (lzmaLegacyCodec) compress(data []byte) ([]byte, error) {
	return nil, errors.New("compress: LZMA_OLD is decode-only")
}

func (lzmaLegacyCodec) decompress(r io.Reader, sink io.Writer, maxLength int64) error {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return err
	}
	return copyBounded(sink, lr, maxLength)
}

// copyBounded copies from r to w, failing with errOverflow as soon as
// the copy exceeds maxLength bytes.
func copyBounded(w io.Writer, r io.Reader, maxLength int64) error {
	limited := &io.LimitedReader{R: r, N: maxLength + 1}
	n, err := io.Copy(w, limited)
	if err != nil {
		return err
	}
	if n > maxLength {
		return errOverflow
	}
	return nil
}
