package dirwalk

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// FlatBuffers slots are the record field numbers minus one.
const (
	fbDirectoryFields = fieldACLs
	fbACLFields       = fieldACLPermissions
)

func fbSlot(field int) int { return field - 1 }

func encodeFlatBuffer(b *flatbuffers.Builder, d *Directory) []byte {
	b.Reset()

	name := b.CreateString(d.Name)
	owner := b.CreateString(d.Owner)
	group := b.CreateString(d.Group)

	acls := make([]flatbuffers.UOffsetT, len(d.ACLs))
	for i, a := range d.ACLs {
		aname := b.CreateString(a.Name)
		b.StartObject(fbACLFields)
		b.PrependUOffsetTSlot(fbSlot(fieldACLName), aname, 0)
		b.PrependUint16Slot(fbSlot(fieldACLPermissions), a.Permissions, 0)
		b.PrependInt8Slot(fbSlot(fieldACLType), int8(a.Type), 0)
		b.PrependInt8Slot(fbSlot(fieldACLScope), int8(a.Scope), 0)
		acls[i] = b.EndObject()
	}
	b.StartVector(flatbuffers.SizeUOffsetT, len(acls), flatbuffers.SizeUOffsetT)
	for i := len(acls) - 1; i >= 0; i-- {
		b.PrependUOffsetT(acls[i])
	}
	aclVec := b.EndVector(len(acls))

	b.StartObject(fbDirectoryFields)
	b.PrependInt64Slot(fbSlot(fieldCreationTime), d.CreationTime, 0)
	b.PrependInt64Slot(fbSlot(fieldModificationTime), d.ModificationTime, 0)
	b.PrependInt64Slot(fbSlot(fieldUpdateID), d.UpdateID, 0)
	b.PrependInt64(d.ObjectID) // always present, even when zero
	b.Slot(fbSlot(fieldObjectID))
	b.PrependInt64Slot(fbSlot(fieldParentID), d.ParentID, 0)
	b.PrependUOffsetTSlot(fbSlot(fieldName), name, 0)
	b.PrependUOffsetTSlot(fbSlot(fieldOwner), owner, 0)
	b.PrependUOffsetTSlot(fbSlot(fieldGroup), group, 0)
	b.PrependUOffsetTSlot(fbSlot(fieldACLs), aclVec, 0)
	b.PrependUint16Slot(fbSlot(fieldPermission), d.Permission, 0)
	b.Finish(b.EndObject())

	return append([]byte(nil), b.FinishedBytes()...)
}

func decodeFlatBufferID(p []byte) (int64, error) {
	t, err := fbRoot(p)
	if err != nil {
		return 0, err
	}

	off, ok, err := fbField(t, fieldObjectID, 8)
	if err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("%w: flatbuffer record without object id", ErrMalformed)
	}
	return t.GetInt64(off), nil
}

func decodeFlatBuffer(p []byte) (*Directory, error) {
	t, err := fbRoot(p)
	if err != nil {
		return nil, err
	}

	d := new(Directory)
	for _, f := range []struct {
		field int
		dst   *int64
	}{
		{fieldCreationTime, &d.CreationTime},
		{fieldModificationTime, &d.ModificationTime},
		{fieldUpdateID, &d.UpdateID},
		{fieldObjectID, &d.ObjectID},
		{fieldParentID, &d.ParentID},
	} {
		off, ok, err := fbField(t, f.field, 8)
		if err != nil {
			return nil, err
		} else if ok {
			*f.dst = t.GetInt64(off)
		}
	}

	for _, f := range []struct {
		field int
		dst   *string
	}{
		{fieldName, &d.Name},
		{fieldOwner, &d.Owner},
		{fieldGroup, &d.Group},
	} {
		if *f.dst, err = fbString(t, f.field); err != nil {
			return nil, err
		}
	}

	if off, ok, err := fbField(t, fieldPermission, 2); err != nil {
		return nil, err
	} else if ok {
		d.Permission = t.GetUint16(off)
	}

	if d.ACLs, err = fbACLs(t); err != nil {
		return nil, err
	}
	return d, nil
}

func fbACLs(t *flatbuffers.Table) ([]ACL, error) {
	off, ok, err := fbField(t, fieldACLs, flatbuffers.SizeUOffsetT)
	if err != nil || !ok {
		return nil, err
	}

	vec := int(off) + int(flatbuffers.GetUOffsetT(t.Bytes[off:]))
	if vec < 0 || vec+flatbuffers.SizeUOffsetT > len(t.Bytes) {
		return nil, errFlatBufferBounds
	}
	n := int(flatbuffers.GetUOffsetT(t.Bytes[vec:]))
	if n > (len(t.Bytes)-vec-flatbuffers.SizeUOffsetT)/flatbuffers.SizeUOffsetT {
		return nil, errFlatBufferBounds
	}

	acls := make([]ACL, 0, n)
	for i := 0; i < n; i++ {
		elem := vec + flatbuffers.SizeUOffsetT*(i+1)
		sub, err := fbTable(t.Bytes, elem+int(flatbuffers.GetUOffsetT(t.Bytes[elem:])))
		if err != nil {
			return nil, err
		}

		var a ACL
		if a.Name, err = fbString(sub, fieldACLName); err != nil {
			return nil, err
		}
		if off, ok, err := fbField(sub, fieldACLType, 1); err != nil {
			return nil, err
		} else if ok {
			a.Type = ACLType(sub.GetInt8(off))
		}
		if off, ok, err := fbField(sub, fieldACLScope, 1); err != nil {
			return nil, err
		} else if ok {
			a.Scope = ACLScope(sub.GetInt8(off))
		}
		if off, ok, err := fbField(sub, fieldACLPermissions, 2); err != nil {
			return nil, err
		} else if ok {
			a.Permissions = sub.GetUint16(off)
		}
		acls = append(acls, a)
	}
	return acls, nil
}

// --------------------------------------------------------------------

var errFlatBufferBounds = fmt.Errorf("%w: flatbuffer offset out of bounds", ErrMalformed)

func fbRoot(p []byte) (*flatbuffers.Table, error) {
	if len(p) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("%w: flatbuffer of %d bytes", ErrMalformed, len(p))
	}
	return fbTable(p, int(flatbuffers.GetUOffsetT(p)))
}

// fbTable validates the table at pos and its vtable before any field is read.
func fbTable(p []byte, pos int) (*flatbuffers.Table, error) {
	if pos < 0 || pos+flatbuffers.SizeSOffsetT > len(p) {
		return nil, errFlatBufferBounds
	}

	vt := pos - int(flatbuffers.GetSOffsetT(p[pos:]))
	if vt < 0 || vt+2*flatbuffers.SizeVOffsetT > len(p) {
		return nil, errFlatBufferBounds
	}
	vtLen := int(flatbuffers.GetVOffsetT(p[vt:]))
	objLen := int(flatbuffers.GetVOffsetT(p[vt+flatbuffers.SizeVOffsetT:]))
	if vtLen < 2*flatbuffers.SizeVOffsetT || vtLen%flatbuffers.SizeVOffsetT != 0 || vt+vtLen > len(p) || pos+objLen > len(p) {
		return nil, errFlatBufferBounds
	}

	return &flatbuffers.Table{Bytes: p, Pos: flatbuffers.UOffsetT(pos)}, nil
}

// fbField returns the absolute offset of a scalar field of the given size.
func fbField(t *flatbuffers.Table, field, size int) (flatbuffers.UOffsetT, bool, error) {
	o := t.Offset(flatbuffers.VOffsetT(2*flatbuffers.SizeVOffsetT + fbSlot(field)*flatbuffers.SizeVOffsetT))
	if o == 0 {
		return 0, false, nil
	}

	off := t.Pos + flatbuffers.UOffsetT(o)
	if int(off)+size > len(t.Bytes) {
		return 0, false, errFlatBufferBounds
	}
	return off, true, nil
}

func fbString(t *flatbuffers.Table, field int) (string, error) {
	off, ok, err := fbField(t, field, flatbuffers.SizeUOffsetT)
	if err != nil || !ok {
		return "", err
	}

	start := int(off) + int(flatbuffers.GetUOffsetT(t.Bytes[off:]))
	if start+flatbuffers.SizeUOffsetT > len(t.Bytes) {
		return "", errFlatBufferBounds
	}
	n := int(flatbuffers.GetUOffsetT(t.Bytes[start:]))
	start += flatbuffers.SizeUOffsetT
	if n > len(t.Bytes)-start {
		return "", errFlatBufferBounds
	}
	return string(t.Bytes[start : start+n]), nil
}
