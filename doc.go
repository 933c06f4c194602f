/*
Package dirwalk models a directory tree as entries of a flat, ordered key/value
store and measures how the encoding of those entries affects a root-to-leaf
walk.

Data Structure Documentation

Key

Every tree edge is stored under the identifier of the parent directory,
followed by the name of the child.

    Key layout:
    +--------------------------------+-------------------------------------+
    | parent id (8 bytes, big-endian)| child name (UTF-16BE, 2 bytes/unit) |
    +--------------------------------+-------------------------------------+

Because the id prefix is fixed-width, all children of a directory sort
contiguously.

Value

A value holds at least the identifier of the child, which becomes the parent
id of the next lookup during a walk. The Format of a Codec decides how:

    long             8-byte big-endian id
    padded           8-byte big-endian id followed by N random bytes
    flatbuffer       directory record as a FlatBuffers table
    proto            directory record in protobuf wire format
    cbor             directory record as a CBOR map with integer keys
    *-long           the record above, with its first 8 bytes replaced
                     by the big-endian id

Tree

A generated tree has DirsPerLevel children at every directory and Levels
levels. The root has id 0, all other ids are assigned from a counter
starting at 1 in depth-first order, so a complete tree holds
TreeSize(DirsPerLevel, Levels) entries.
*/
package dirwalk
