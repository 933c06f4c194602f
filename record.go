package dirwalk

// ACLType is the subject type of an ACL entry.
type ACLType int8

// ACL subject types.
const (
	ACLUser ACLType = iota
	ACLGroup
	ACLMask
	ACLOther
)

// ACLScope is the scope of an ACL entry.
type ACLScope int8

// ACL scopes.
const (
	ACLAccess ACLScope = iota
	ACLDefault
)

// ACL is a single access-control entry. Field numbers are shared by the
// protobuf and CBOR encodings.
type ACL struct {
	Name        string   `cbor:"1,keyasint"`
	Type        ACLType  `cbor:"2,keyasint"`
	Scope       ACLScope `cbor:"3,keyasint"`
	Permissions uint16   `cbor:"4,keyasint"`
}

// Directory is the metadata record stored by the record formats.
type Directory struct {
	CreationTime     int64  `cbor:"1,keyasint"`
	ModificationTime int64  `cbor:"2,keyasint"`
	UpdateID         int64  `cbor:"3,keyasint"`
	ObjectID         int64  `cbor:"4,keyasint"`
	ParentID         int64  `cbor:"5,keyasint"`
	Name             string `cbor:"6,keyasint"`
	Owner            string `cbor:"7,keyasint"`
	Group            string `cbor:"8,keyasint"`
	Permission       uint16 `cbor:"9,keyasint"`
	ACLs             []ACL  `cbor:"10,keyasint"`
}

// record field numbers
const (
	fieldCreationTime = iota + 1
	fieldModificationTime
	fieldUpdateID
	fieldObjectID
	fieldParentID
	fieldName
	fieldOwner
	fieldGroup
	fieldPermission
	fieldACLs
)

// ACL field numbers
const (
	fieldACLName = iota + 1
	fieldACLType
	fieldACLScope
	fieldACLPermissions
)
