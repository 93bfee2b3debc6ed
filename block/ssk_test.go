package block

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/keys"
	"github.com/hyphanet/corelib/primitives"
)

func makeInsertable(t *testing.T, docName string) *keys.InsertableSsk {
	t.Helper()
	k, err := keys.GenerateInsertableSsk(docName, nil, primitives.AESPCFB256SHA256)
	if err != nil {
		t.Fatalf("GenerateInsertableSsk: %v", err)
	}
	return k
}

func TestSskEncodeDecodeRoundTrip(t *testing.T) {
	insertable := makeInsertable(t, "doc-1")
	data := []byte("signed subspace payload")

	blk, err := EncodeSsk(EncodeSskParams{Data: data, Key: insertable, DontCompress: true})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	nodeKey, err := insertable.NodeKey(false)
	if err != nil {
		t.Fatalf("NodeKey: %v", err)
	}
	verified, err := NewNodeSskBlock(blk.Data, blk.Headers, nodeKey, false)
	if err != nil {
		t.Fatalf("NewNodeSskBlock: %v", err)
	}

	res, err := DecodeSsk(DecodeSskParams{Block: verified, Ssk: &insertable.Ssk})
	if err != nil {
		t.Fatalf("DecodeSsk: %v", err)
	}
	if !bytes.Equal(res.Data, data) {
		t.Fatalf("round trip mismatch: got %q want %q", res.Data, data)
	}
	if res.IsMetadata {
		t.Fatal("IsMetadata must be false for a plain-data insert")
	}
}

func TestSskEncodeDecodeCompressed(t *testing.T) {
	insertable := makeInsertable(t, "doc-2")
	data := bytes.Repeat([]byte("compressible subspace content "), 100)

	blk, err := EncodeSsk(EncodeSskParams{Data: data, Key: insertable, Descriptor: "GZIP"})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	nodeKey, err := insertable.NodeKey(false)
	if err != nil {
		t.Fatalf("NodeKey: %v", err)
	}
	verified, err := NewNodeSskBlock(blk.Data, blk.Headers, nodeKey, false)
	if err != nil {
		t.Fatalf("NewNodeSskBlock: %v", err)
	}

	res, err := DecodeSsk(DecodeSskParams{Block: verified, Ssk: &insertable.Ssk, MaxLength: DataLength})
	if err != nil {
		t.Fatalf("DecodeSsk: %v", err)
	}
	if !bytes.Equal(res.Data, data) {
		t.Fatal("compressed round trip did not reproduce the payload")
	}
}

func TestSskDecodeZeroMaxLengthRejectsCompressed(t *testing.T) {
	insertable := makeInsertable(t, "doc-7")
	data := bytes.Repeat([]byte("will not fit in a zero cap "), 50)

	blk, err := EncodeSsk(EncodeSskParams{Data: data, Key: insertable, Descriptor: "GZIP"})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	_, err = DecodeSsk(DecodeSskParams{Block: blk, Ssk: &insertable.Ssk})
	var tooBig *herrors.TooBigError
	if !errors.As(err, &tooBig) {
		t.Fatalf("expected TooBigError for MaxLength=0 on compressed data, got %v", err)
	}
}

func TestSskMetadataFlagSurvivesRoundTrip(t *testing.T) {
	insertable := makeInsertable(t, "doc-3")
	data := []byte("manifest bytes")

	blk, err := EncodeSsk(EncodeSskParams{Data: data, Key: insertable, AsMetadata: true, DontCompress: true})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	res, err := DecodeSsk(DecodeSskParams{Block: blk, Ssk: &insertable.Ssk})
	if err != nil {
		t.Fatalf("DecodeSsk: %v", err)
	}
	if !res.IsMetadata {
		t.Fatal("IsMetadata flag lost across encode/decode")
	}
	if !bytes.Equal(res.Data, data) {
		t.Fatal("metadata payload mismatch")
	}
}

func TestSskBlockRejectsTamperedHeaders(t *testing.T) {
	insertable := makeInsertable(t, "doc-4")

	blk, err := EncodeSsk(EncodeSskParams{Data: []byte("x"), Key: insertable, DontCompress: true})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	tampered := append([]byte(nil), blk.Headers...)
	tampered[SskSignedPreludeLength] ^= 0x01

	nodeKey, err := insertable.NodeKey(false)
	if err != nil {
		t.Fatalf("NodeKey: %v", err)
	}
	_, err = NewNodeSskBlock(blk.Data, tampered, nodeKey, false)
	var verifyErr *herrors.VerifyFailedError
	if err == nil {
		t.Fatal("expected tampered headers to fail verification")
	}
	if !errors.As(err, &verifyErr) {
		t.Fatalf("expected VerifyFailedError, got %v", err)
	}
}

func TestSskBlockRejectsTamperedData(t *testing.T) {
	insertable := makeInsertable(t, "doc-5")

	blk, err := EncodeSsk(EncodeSskParams{Data: []byte("y"), Key: insertable, DontCompress: true})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	tampered := append([]byte(nil), blk.Data...)
	tampered[100] ^= 0xFF

	nodeKey, err := insertable.NodeKey(false)
	if err != nil {
		t.Fatalf("NodeKey: %v", err)
	}
	if _, err := NewNodeSskBlock(tampered, blk.Headers, nodeKey, false); err == nil {
		t.Fatal("expected tampered data to fail signature verification")
	}
}

func TestSskBlockRequiresPublicKey(t *testing.T) {
	insertable := makeInsertable(t, "doc-6")

	blk, err := EncodeSsk(EncodeSskParams{Data: []byte("z"), Key: insertable, DontCompress: true})
	if err != nil {
		t.Fatalf("EncodeSsk: %v", err)
	}

	bare, err := keys.NewNodeSsk(insertable.Routing, insertable.EhDocname, nil, insertable.CryptoAlgo)
	if err != nil {
		t.Fatalf("NewNodeSsk: %v", err)
	}
	if _, err := NewNodeSskBlock(blk.Data, blk.Headers, bare, false); err == nil {
		t.Fatal("expected missing public key to be rejected")
	}
}
