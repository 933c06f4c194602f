package dirwalk

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
)

// Format is the value encoding of a Codec.
type Format byte

// Supported value formats.
const (
	FormatLong Format = iota
	FormatPadded
	FormatFlatBuffer
	FormatFlatBufferLong
	FormatProto
	FormatProtoLong
	FormatCBOR
	FormatCBORLong
	unknownFormat
)

var formatNames = [...]string{
	FormatLong:           "long",
	FormatPadded:         "padded",
	FormatFlatBuffer:     "flatbuffer",
	FormatFlatBufferLong: "flatbuffer-long",
	FormatProto:          "proto",
	FormatProtoLong:      "proto-long",
	FormatCBOR:           "cbor",
	FormatCBORLong:       "cbor-long",
}

func (f Format) isValid() bool { return f < unknownFormat }

// String returns the selector name of the format.
func (f Format) String() string {
	if f.isValid() {
		return formatNames[f]
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// HasRecord returns true if values of this format carry a readable directory
// record. The -long formats only keep the size of a record, its leading
// bytes are overwritten by the id.
func (f Format) HasRecord() bool {
	switch f {
	case FormatFlatBuffer, FormatProto, FormatCBOR:
		return true
	}
	return false
}

// ParseFormat parses a format selector.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if s == name {
			return Format(f), nil
		}
	}
	return unknownFormat, fmt.Errorf("%w: unknown format %q", ErrConfig, s)
}

// --------------------------------------------------------------------

// Layout combines a format with its padding length. Each layout gets its own
// store, named after Layout.String().
type Layout struct {
	Format    Format
	PadLength int // filler bytes after the id, FormatPadded only
}

const paddingPrefix = "padding-"

// String returns the layout name. Padded layouts are named after their total
// value size, e.g. "padding-50" for an 8-byte id followed by 42 filler bytes.
func (l Layout) String() string {
	if l.Format == FormatPadded {
		return paddingPrefix + strconv.Itoa(l.PadLength+8)
	}
	return l.Format.String()
}

// ParseLayout parses a layout name as returned by Layout.String.
func ParseLayout(s string) (Layout, error) {
	if strings.HasPrefix(s, paddingPrefix) {
		total, err := strconv.Atoi(strings.TrimPrefix(s, paddingPrefix))
		if err != nil || total < 8 {
			return Layout{}, fmt.Errorf("%w: invalid padded layout %q", ErrConfig, s)
		}
		return Layout{Format: FormatPadded, PadLength: total - 8}, nil
	}

	f, err := ParseFormat(s)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Format: f}, nil
}

// Layouts are the standard layouts which are generated and queried by default.
var Layouts = []Layout{
	{Format: FormatLong},
	{Format: FormatFlatBuffer},
	{Format: FormatFlatBufferLong},
	{Format: FormatProto},
	{Format: FormatProtoLong},
	{Format: FormatCBOR},
	{Format: FormatCBORLong},
	{Format: FormatPadded, PadLength: 42},
	{Format: FormatPadded, PadLength: 92},
	{Format: FormatPadded, PadLength: 142},
	{Format: FormatPadded, PadLength: 192},
	{Format: FormatPadded, PadLength: 242},
}

// --------------------------------------------------------------------

// CodecOptions define codec specific options.
type CodecOptions struct {
	// Format is the value format.
	// Default: FormatLong.
	Format Format

	// PadLength is the number of random bytes appended to the id.
	// Only used with FormatPadded.
	PadLength int

	// Rand is the source of padding bytes.
	// Default: seeded from the current time.
	Rand *rand.Rand

	// Now returns the timestamps of directory records.
	// Default: time.Now.
	Now func() time.Time

	// Name, Owner and Group are the fixed string fields of directory records,
	// ACLName is the subject of their ACL entries.
	// Defaults: DefaultNamePrefix, "dirwalk", "read-write", "otheruser".
	Name, Owner, Group, ACLName string

	// Permission are the permission bits of directory records.
	// Default: 0755.
	Permission uint16
}

func (o *CodecOptions) norm() *CodecOptions {
	var oo CodecOptions
	if o != nil {
		oo = *o
	}

	if oo.Rand == nil {
		oo.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if oo.Now == nil {
		oo.Now = time.Now
	}
	if oo.Name == "" {
		oo.Name = DefaultNamePrefix
	}
	if oo.Owner == "" {
		oo.Owner = "dirwalk"
	}
	if oo.Group == "" {
		oo.Group = "read-write"
	}
	if oo.ACLName == "" {
		oo.ACLName = "otheruser"
	}
	if oo.Permission == 0 {
		oo.Permission = 0755
	}

	return &oo
}

// Codec encodes child ids into store values and decodes them back. Decoding
// is safe for concurrent use, encoding is not.
type Codec struct {
	o   *CodecOptions
	fbb *flatbuffers.Builder
}

// NewCodec returns a codec for the given options.
func NewCodec(o *CodecOptions) (*Codec, error) {
	oo := o.norm()
	if !oo.Format.isValid() {
		return nil, fmt.Errorf("%w: unknown format %s", ErrConfig, oo.Format)
	}
	if oo.PadLength < 0 {
		return nil, fmt.Errorf("%w: negative padding length %d", ErrConfig, oo.PadLength)
	}
	if oo.Format != FormatPadded {
		oo.PadLength = 0
	}

	return &Codec{o: oo, fbb: flatbuffers.NewBuilder(256)}, nil
}

// NewLayoutCodec is a shortcut for creating a codec for a layout.
func NewLayoutCodec(l Layout, o *CodecOptions) (*Codec, error) {
	oo := o.norm()
	oo.Format = l.Format
	oo.PadLength = l.PadLength
	return NewCodec(oo)
}

// Format returns the codec format.
func (c *Codec) Format() Format { return c.o.Format }

// Layout returns the codec layout.
func (c *Codec) Layout() Layout { return Layout{Format: c.o.Format, PadLength: c.o.PadLength} }

// Encode encodes the value stored for childID, a child of parentID.
func (c *Codec) Encode(childID, parentID int64) ([]byte, error) {
	switch c.o.Format {
	case FormatLong:
		p := make([]byte, 8)
		putID(p, childID)
		return p, nil
	case FormatPadded:
		p := make([]byte, 8+c.o.PadLength)
		putID(p, childID)
		_, _ = c.o.Rand.Read(p[8:])
		return p, nil
	case FormatFlatBuffer:
		return encodeFlatBuffer(c.fbb, c.Directory(childID, parentID)), nil
	case FormatFlatBufferLong:
		return withID(encodeFlatBuffer(c.fbb, c.Directory(childID, parentID)), childID)
	case FormatProto:
		return encodeProto(c.Directory(childID, parentID)), nil
	case FormatProtoLong:
		return withID(encodeProto(c.Directory(childID, parentID)), childID)
	case FormatCBOR:
		return encodeCBOR(c.Directory(childID, parentID))
	case FormatCBORLong:
		p, err := encodeCBOR(c.Directory(childID, parentID))
		if err != nil {
			return nil, err
		}
		return withID(p, childID)
	}
	return nil, fmt.Errorf("%w: unknown format %s", ErrConfig, c.o.Format)
}

// DecodeNextID decodes the child id from a value.
func (c *Codec) DecodeNextID(p []byte) (int64, error) {
	switch c.o.Format {
	case FormatFlatBuffer:
		return decodeFlatBufferID(p)
	case FormatProto:
		return decodeProtoID(p)
	case FormatCBOR:
		return decodeCBORID(p)
	default:
		return DecodeID(p)
	}
}

// DecodeDirectory decodes the full directory record from a value. Only
// formats which embed an intact record are supported.
func (c *Codec) DecodeDirectory(p []byte) (*Directory, error) {
	switch c.o.Format {
	case FormatFlatBuffer:
		return decodeFlatBuffer(p)
	case FormatProto:
		return decodeProto(p)
	case FormatCBOR:
		return decodeCBOR(p)
	}
	return nil, fmt.Errorf("%w: %s values carry no readable directory record", ErrConfig, c.o.Format)
}

// Directory returns the synthetic directory record for childID.
func (c *Codec) Directory(childID, parentID int64) *Directory {
	now := c.o.Now().UnixMilli()
	return &Directory{
		CreationTime:     now,
		ModificationTime: now,
		UpdateID:         now,
		ObjectID:         childID,
		ParentID:         parentID,
		Name:             c.o.Name,
		Owner:            c.o.Owner,
		Group:            c.o.Group,
		Permission:       c.o.Permission,
		ACLs: []ACL{
			{Name: c.o.ACLName, Type: ACLUser, Scope: ACLDefault, Permissions: 7},
			{Name: c.o.ACLName, Type: ACLUser, Scope: ACLAccess, Permissions: 7},
		},
	}
}

// withID overwrites the first 8 bytes of an encoded record with the id,
// keeping the size of the record but making it unreadable as such.
func withID(p []byte, id int64) ([]byte, error) {
	if len(p) < 8 {
		return nil, fmt.Errorf("%w: record of %d bytes cannot hold an id", ErrMalformed, len(p))
	}
	putID(p, id)
	return p, nil
}
