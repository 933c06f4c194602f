package dirwalk

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

func encodeProto(d *Directory) []byte {
	b := make([]byte, 0, 128)
	b = appendProtoVarint(b, fieldCreationTime, uint64(d.CreationTime))
	b = appendProtoVarint(b, fieldModificationTime, uint64(d.ModificationTime))
	b = appendProtoVarint(b, fieldUpdateID, uint64(d.UpdateID))
	b = appendProtoVarint(b, fieldObjectID, uint64(d.ObjectID))
	b = appendProtoVarint(b, fieldParentID, uint64(d.ParentID))
	b = appendProtoString(b, fieldName, d.Name)
	b = appendProtoString(b, fieldOwner, d.Owner)
	b = appendProtoString(b, fieldGroup, d.Group)
	b = appendProtoVarint(b, fieldPermission, uint64(d.Permission))

	var sub []byte
	for _, a := range d.ACLs {
		sub = appendProtoString(sub[:0], fieldACLName, a.Name)
		sub = appendProtoVarint(sub, fieldACLType, uint64(a.Type))
		sub = appendProtoVarint(sub, fieldACLScope, uint64(a.Scope))
		sub = appendProtoVarint(sub, fieldACLPermissions, uint64(a.Permissions))

		b = protowire.AppendTag(b, fieldACLs, protowire.BytesType)
		b = protowire.AppendBytes(b, sub)
	}
	return b
}

func appendProtoVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendProtoString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func decodeProtoID(p []byte) (int64, error) {
	var id int64
	var found bool

	err := consumeProto(p, func(num protowire.Number, typ protowire.Type, p []byte) (int, error) {
		if num != fieldObjectID {
			return 0, nil
		}
		v, n, err := consumeProtoVarint(typ, p)
		id, found = int64(v), true
		return n, err
	})
	if err != nil {
		return 0, err
	} else if !found {
		return 0, fmt.Errorf("%w: proto record without object id", ErrMalformed)
	}
	return id, nil
}

func decodeProto(p []byte) (*Directory, error) {
	d := new(Directory)
	err := consumeProto(p, func(num protowire.Number, typ protowire.Type, p []byte) (int, error) {
		switch num {
		case fieldCreationTime, fieldModificationTime, fieldUpdateID, fieldObjectID, fieldParentID, fieldPermission:
			v, n, err := consumeProtoVarint(typ, p)
			switch num {
			case fieldCreationTime:
				d.CreationTime = int64(v)
			case fieldModificationTime:
				d.ModificationTime = int64(v)
			case fieldUpdateID:
				d.UpdateID = int64(v)
			case fieldObjectID:
				d.ObjectID = int64(v)
			case fieldParentID:
				d.ParentID = int64(v)
			case fieldPermission:
				d.Permission = uint16(v)
			}
			return n, err
		case fieldName, fieldOwner, fieldGroup:
			v, n, err := consumeProtoBytes(typ, p)
			switch num {
			case fieldName:
				d.Name = string(v)
			case fieldOwner:
				d.Owner = string(v)
			case fieldGroup:
				d.Group = string(v)
			}
			return n, err
		case fieldACLs:
			v, n, err := consumeProtoBytes(typ, p)
			if err != nil {
				return n, err
			}
			a, err := decodeProtoACL(v)
			if err != nil {
				return n, err
			}
			d.ACLs = append(d.ACLs, *a)
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func decodeProtoACL(p []byte) (*ACL, error) {
	a := new(ACL)
	err := consumeProto(p, func(num protowire.Number, typ protowire.Type, p []byte) (int, error) {
		switch num {
		case fieldACLName:
			v, n, err := consumeProtoBytes(typ, p)
			a.Name = string(v)
			return n, err
		case fieldACLType, fieldACLScope, fieldACLPermissions:
			v, n, err := consumeProtoVarint(typ, p)
			switch num {
			case fieldACLType:
				a.Type = ACLType(v)
			case fieldACLScope:
				a.Scope = ACLScope(v)
			case fieldACLPermissions:
				a.Permissions = uint16(v)
			}
			return n, err
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// consumeProto parses every field of a message. For each field fn either
// consumes the value and returns its length, or returns 0 to skip it.
func consumeProto(p []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(p) > 0 {
		num, typ, n := protowire.ConsumeTag(p)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		p = p[n:]

		n, err := fn(num, typ, p)
		if err != nil {
			return err
		}
		if n == 0 {
			if n = protowire.ConsumeFieldValue(num, typ, p); n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
		}
		p = p[n:]
	}
	return nil
}

func consumeProtoVarint(typ protowire.Type, p []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("%w: unexpected proto wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeVarint(p)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeProtoBytes(typ protowire.Type, p []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: unexpected proto wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeBytes(p)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
	}
	return v, n, nil
}
