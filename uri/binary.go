package uri

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hyphanet/corelib/herrors"
)

// binary key-type tags used by the compact wire encoding.
const (
	binaryTypeCHK byte = 1
	binaryTypeSSK byte = 2
	binaryTypeKSK byte = 3
)

// MarshalBinary renders the Uri in the compact wire format used when a
// parsed key is embedded in another message. USK is unsupported: an
// edition-bearing URI has no single canonical node-routable binary
// form.
func (u Uri) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer

	var tag byte
	switch u.Type {
	case herrors.KeyTypeCHK:
		tag = binaryTypeCHK
	case herrors.KeyTypeSSK:
		tag = binaryTypeSSK
	case herrors.KeyTypeKSK:
		tag = binaryTypeKSK
	default:
		return nil, herrors.Unsupported("cannot marshal USK as a binary key")
	}
	buf.WriteByte(tag)

	if u.Type != herrors.KeyTypeKSK {
		if len(u.Routing) != 32 {
			return nil, herrors.MalformedURI("routing key must be 32 bytes", nil)
		}
		if len(u.Decryption) != 32 {
			return nil, herrors.MalformedURI("decryption key must be 32 bytes", nil)
		}
		buf.Write(u.Routing)
		buf.Write(u.Decryption)
		buf.Write(u.Extra)
	}

	if u.Type != herrors.KeyTypeCHK {
		if len(u.MetaStrings) == 0 {
			return nil, herrors.MalformedURI("doc_name/keyword meta-string required", nil)
		}
		if err := writeUTF(&buf, u.MetaStrings[0]); err != nil {
			return nil, err
		}
	}

	rest := u.MetaStrings
	if u.Type != herrors.KeyTypeCHK {
		rest = u.MetaStrings[1:]
	}
	if err := binary.Write(&buf, binary.BigEndian, int32(len(rest))); err != nil {
		return nil, err
	}
	for _, m := range rest {
		if err := writeUTF(&buf, m); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary inverts MarshalBinary.
func (u *Uri) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var tag byte
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return herrors.MalformedURI("truncated binary key", err)
	}

	switch tag {
	case binaryTypeCHK:
		u.Type = herrors.KeyTypeCHK
	case binaryTypeSSK:
		u.Type = herrors.KeyTypeSSK
	case binaryTypeKSK:
		u.Type = herrors.KeyTypeKSK
	default:
		return herrors.MalformedURI(fmt.Sprintf("unknown binary key tag %d", tag), nil)
	}

	if u.Type != herrors.KeyTypeKSK {
		u.Routing = make([]byte, 32)
		if _, err := io.ReadFull(r, u.Routing); err != nil {
			return herrors.MalformedURI("truncated routing key", err)
		}
		u.Decryption = make([]byte, 32)
		if _, err := io.ReadFull(r, u.Decryption); err != nil {
			return herrors.MalformedURI("truncated decryption key", err)
		}
		u.Extra = make([]byte, 5)
		if _, err := io.ReadFull(r, u.Extra); err != nil {
			return herrors.MalformedURI("truncated extra bytes", err)
		}
	}

	var docName string
	if u.Type != herrors.KeyTypeCHK {
		var err error
		docName, err = readUTF(r)
		if err != nil {
			return herrors.MalformedURI("truncated doc_name/keyword", err)
		}
	}

	var count int32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return herrors.MalformedURI("truncated meta-string count", err)
	}
	meta := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		m, err := readUTF(r)
		if err != nil {
			return herrors.MalformedURI("truncated meta-string", err)
		}
		meta = append(meta, m)
	}

	if u.Type != herrors.KeyTypeCHK {
		u.MetaStrings = append([]string{docName}, meta...)
	} else {
		u.MetaStrings = meta
	}
	return nil
}

func writeUTF(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.BigEndian, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readUTF(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
