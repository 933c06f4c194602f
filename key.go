package dirwalk

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// EncodeKey encodes a parent id and a child name into a store key.
func EncodeKey(parent int64, name string) ([]byte, error) {
	return AppendKey(make([]byte, 0, 8+2*len(name)), parent, name)
}

// AppendKey is like EncodeKey but appends the key to dst.
func AppendKey(dst []byte, parent int64, name string) ([]byte, error) {
	if !utf8.ValidString(name) {
		return dst, fmt.Errorf("%w: %q", ErrEncoding, name)
	}

	enc, err := utf16be.NewEncoder().String(name)
	if err != nil {
		return dst, fmt.Errorf("%w: %q: %v", ErrEncoding, name, err)
	}

	dst = binary.BigEndian.AppendUint64(dst, uint64(parent))
	return append(dst, enc...), nil
}

// DecodeID reads a big-endian id from the first 8 bytes of p.
func DecodeID(p []byte) (int64, error) {
	if len(p) < 8 {
		return 0, fmt.Errorf("%w: need 8 bytes for an id, got %d", ErrMalformed, len(p))
	}
	return int64(binary.BigEndian.Uint64(p)), nil
}

func putID(p []byte, id int64) {
	binary.BigEndian.PutUint64(p, uint64(id))
}
