/*
Package table contains an immutable sorted table of byte-string keys. It
stores a generated directory tree once and serves point lookups from it, but
is not tied to any key layout.

Data Structure Documentation

Table

A table contains a series of data blocks followed by an index and
a table footer.

    Table layout:
    +---------+---------+---------+-------------+--------------+
    | block 1 |   ...   | block n | block index | table footer |
    +---------+---------+---------+-------------+--------------+

    Block index:
    +----------------------------+------------------------------+-------------------------+--------+
    | max key len block 1 (varint) | max key block 1 (varlen)   |  offset 1 (varint,delta) |   ...  |
    +----------------------------+------------------------------+-------------------------+--------+

    Table footer:
    +------------------------+------------------+
    | index offset (8 bytes) |  magic (8 bytes) |
    +------------------------+------------------+

Block

A block comprises of a series of sections, followed by a section
index and a single-byte compression type indicator.

    Block layout:
    +-----------+---------+-----------+---------------+---------------------------+
    | section 1 |   ...   | section n | section index | compression type (1-byte) |
    +-----------+---------+-----------+---------------+---------------------------+

    Section index:
    +----------------------------+-------+----------------------------+-------------------------------+
    | section offset 2 (4 bytes) |  ...  | section offset n (4 bytes) |  number of sections (4 bytes) |
    +----------------------------+-------+----------------------------+-------------------------------+

Section

A section is a series of key/value pairs. The first key of a section is stored
in full, subsequent keys only store the suffix they do not share with the
previous key.

    +-----------------+-------------------+-----------------+-------------------+-----------------+-------+
    | shared (varint) | unshared (varint) | value len (var) | key suffix (var)  | value (varlen)  |  ...  |
    +-----------------+-------------------+-----------------+-------------------+-----------------+-------+
*/
package table
