package table

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"github.com/golang/snappy"
)

// Reader instances can seek and iterate across data in tables.
type Reader struct {
	r io.ReaderAt

	index     []blockInfo
	maxOffset int64
}

// NewReader opens a reader.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < 16 {
		return nil, errCorrupt
	}
	tmp := make([]byte, 16)

	// read footer
	footerOffset := size - 16
	if _, err := r.ReadAt(tmp, footerOffset); err != nil {
		return nil, err
	}

	// parse footer
	if !bytes.Equal(tmp[8:16], magic) {
		return nil, errBadMagic
	}
	indexOffset := int64(binary.LittleEndian.Uint64(tmp[:8]))
	if indexOffset < 0 || indexOffset > footerOffset {
		return nil, errCorrupt
	}

	// read index
	raw := make([]byte, footerOffset-indexOffset)
	if _, err := r.ReadAt(raw, indexOffset); err != nil && err != io.EOF {
		return nil, err
	}

	var index []blockInfo
	var offset int64

	for pos := 0; pos < len(raw); {
		kln, n := binary.Uvarint(raw[pos:])
		if n <= 0 || uint64(len(raw)-pos-n) < kln {
			return nil, errCorrupt
		}
		pos += n
		maxKey := raw[pos : pos+int(kln)]
		pos += int(kln)

		inc, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return nil, errCorrupt
		}
		pos += n

		offset += int64(inc)
		index = append(index, blockInfo{MaxKey: maxKey, Offset: offset})
	}

	return &Reader{
		r: r,

		index:     index, // block offsets
		maxOffset: indexOffset,
	}, nil
}

// NumBlocks returns the number of stored blocks.
func (r *Reader) NumBlocks() int {
	return len(r.index)
}

// Append retrieves a single value for a key. Unlike Get it
// appends it to dst instead of allocating a new byte slice.
// It may return an ErrNotFound error.
func (r *Reader) Append(dst []byte, key []byte) ([]byte, error) {
	iter, err := r.Seek(key)
	if err != nil {
		return dst, err
	}
	defer iter.Release()

	if !iter.Next() || !bytes.Equal(iter.Key(), key) {
		if err := iter.Err(); err != nil {
			return dst, err
		}
		return dst, ErrNotFound
	}
	return append(dst, iter.Value()...), nil
}

// Get is a shortcut for Append(nil, key).
// It may return an ErrNotFound error.
func (r *Reader) Get(key []byte) ([]byte, error) {
	return r.Append(nil, key)
}

// Seek returns an iterator starting at the position >= key.
func (r *Reader) Seek(key []byte) (*Iterator, error) {
	b, err := r.SeekBlock(key)
	if err != nil {
		return nil, err
	}

	s := b.SeekSection(key)
	s.Seek(key)
	return &Iterator{r: r, b: b, s: s}, nil
}

// GetBlock returns a reader for the n-th block.
func (r *Reader) GetBlock(bpos int) (*BlockReader, error) {
	if len(r.index) == 0 {
		return &BlockReader{}, nil
	}
	if bpos < 0 {
		bpos = 0
	}
	if bpos >= len(r.index) {
		return &BlockReader{
			bpos: len(r.index),
		}, nil
	}
	return r.readBlock(bpos)
}

// SeekBlock seeks the block containing the key.
func (r *Reader) SeekBlock(key []byte) (*BlockReader, error) {
	bpos := sort.Search(len(r.index), func(i int) bool {
		return bytes.Compare(r.index[i].MaxKey, key) >= 0
	})
	return r.GetBlock(bpos)
}

func (r *Reader) readBlock(bpos int) (*BlockReader, error) {
	min := r.index[bpos].Offset
	max := r.maxOffset
	if next := bpos + 1; next < len(r.index) {
		max = r.index[next].Offset
	}
	if max-min < 2 {
		return nil, errCorrupt
	}

	raw := fetchBuffer(int(max - min))
	if _, err := r.r.ReadAt(raw, min); err != nil {
		releaseBuffer(raw)
		return nil, err
	}

	var block []byte
	switch cBitPos := len(raw) - 1; raw[cBitPos] {
	case blockNoCompression:
		block = raw[:cBitPos]
	case blockSnappyCompression:
		defer releaseBuffer(raw)

		sz, err := snappy.DecodedLen(raw[:cBitPos])
		if err != nil {
			return nil, err
		}

		plain := fetchBuffer(sz)
		if block, err = snappy.Decode(plain, raw[:cBitPos]); err != nil {
			releaseBuffer(plain)
			return nil, err
		}
	default:
		releaseBuffer(raw)
		return nil, errBadCompression
	}

	if len(block) < 4 {
		releaseBuffer(block)
		return nil, errCorrupt
	}
	scnt := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	if scnt < 1 || scnt*4 > len(block) {
		releaseBuffer(block)
		return nil, errCorrupt
	}

	return &BlockReader{
		block:  block,
		bpos:   bpos,
		scnt:   scnt,
		maxKey: r.index[bpos].MaxKey,
	}, nil
}

// --------------------------------------------------------------------

// BlockReader reads a single block.
type BlockReader struct {
	block  []byte
	bpos   int // the current block position
	scnt   int // the section count
	maxKey []byte
}

// NumSections returns the number of sections in this block.
func (r *BlockReader) NumSections() int { return r.scnt }

// Pos returns the index position the current block within the table.
func (r *BlockReader) Pos() int { return r.bpos }

// GetSection gets a single section.
func (r *BlockReader) GetSection(spos int) *SectionReader {
	if spos < 0 {
		spos = 0
	}
	if spos >= r.scnt {
		return &SectionReader{spos: r.scnt}
	}

	min := r.sectionOffset(spos)
	max := r.sectionOffset(spos + 1)
	if min > max || max > len(r.block) {
		return &SectionReader{spos: spos, err: errCorrupt}
	}
	return &SectionReader{section: r.block[min:max], spos: spos}
}

// SeekSection seeks the section for a key.
func (r *BlockReader) SeekSection(key []byte) *SectionReader {
	if bytes.Compare(key, r.maxKey) > 0 {
		return r.GetSection(r.scnt)
	}

	spos := sort.Search(r.scnt, func(i int) bool {
		return bytes.Compare(r.firstKey(i), key) > 0
	}) - 1
	return r.GetSection(spos)
}

// Release releases the block reader and frees up resources. The reader must not be used
// after this method is called.
func (r *BlockReader) Release() { releaseBuffer(r.block) }

// The first key of a section, which is always stored in full.
func (r *BlockReader) firstKey(spos int) []byte {
	off := r.sectionOffset(spos)
	if off >= len(r.block) {
		return nil
	}

	p := r.block[off:]
	_, n1 := binary.Uvarint(p) // shared, always zero
	if n1 <= 0 {
		return nil
	}
	kln, n2 := binary.Uvarint(p[n1:])
	if n2 <= 0 {
		return nil
	}
	_, n3 := binary.Uvarint(p[n1+n2:])
	if n3 <= 0 {
		return nil
	}

	start := n1 + n2 + n3
	if uint64(len(p)-start) < kln {
		return nil
	}
	return p[start : start+int(kln)]
}

// The starting offset of the section within the block.
func (r *BlockReader) sectionOffset(spos int) int {
	if spos < 1 {
		return 0
	} else if spos >= r.scnt {
		return len(r.block) - r.scnt*4
	} else {
		nn := len(r.block) - r.scnt*4 + (spos-1)*4
		return int(binary.LittleEndian.Uint32(r.block[nn:]))
	}
}

// SectionReader reads an individual section within a block.
type SectionReader struct {
	section []byte

	spos int // the section
	read int // bytes read

	key  []byte // current key
	next []byte // scratch key for peeking
	val  []byte // current value

	err error
}

// Seek positions the cursor before the first entry >= key.
func (r *SectionReader) Seek(key []byte) bool {
	for r.More() {
		next, n, vln, ok := r.peek()
		if !ok {
			return false
		}
		if bytes.Compare(next, key) >= 0 {
			return true
		}
		r.advance(n, vln)
	}
	return false
}

// Pos returns the index position the current section within the block.
func (r *SectionReader) Pos() int { return r.spos }

// Key returns the key of the current entry. Please note that keys
// are temporary buffers and must be copied if used beyond the next cursor move.
func (r *SectionReader) Key() []byte { return r.key }

// Value returns the value of the current entry. Please note that values
// are temporary buffers and must be copied if used beyond the next cursor move.
func (r *SectionReader) Value() []byte { return r.val }

// More returns true if more data can be read in the section.
func (r *SectionReader) More() bool { return r.err == nil && r.read < len(r.section) }

// Err returns the first decoding error, if any.
func (r *SectionReader) Err() error { return r.err }

// Next advances the cursor to the next entry within the section and
// returns true if successful.
func (r *SectionReader) Next() bool {
	if !r.More() {
		return false
	}

	_, n, vln, ok := r.peek()
	if !ok {
		return false
	}
	r.advance(n, vln)
	return true
}

// peek decodes the next entry's key into the scratch buffer without moving
// the cursor. It returns the key, the header+suffix length and the value length.
func (r *SectionReader) peek() ([]byte, int, int, bool) {
	p := r.section[r.read:]

	shared, n1 := binary.Uvarint(p)
	if n1 <= 0 {
		r.err = errCorrupt
		return nil, 0, 0, false
	}
	unshared, n2 := binary.Uvarint(p[n1:])
	if n2 <= 0 {
		r.err = errCorrupt
		return nil, 0, 0, false
	}
	vln, n3 := binary.Uvarint(p[n1+n2:])
	if n3 <= 0 {
		r.err = errCorrupt
		return nil, 0, 0, false
	}

	n := n1 + n2 + n3
	if shared > uint64(len(r.key)) || uint64(len(p)-n) < unshared || uint64(len(p)-n)-unshared < vln {
		r.err = errCorrupt
		return nil, 0, 0, false
	}

	r.next = append(r.next[:0], r.key[:shared]...)
	r.next = append(r.next, p[n:n+int(unshared)]...)
	return r.next, n + int(unshared), int(vln), true
}

// advance moves the cursor past the entry decoded by the last peek.
func (r *SectionReader) advance(n, vln int) {
	r.key, r.next = r.next, r.key
	r.read += n
	r.val = r.section[r.read : r.read+vln]
	r.read += vln
}

// --------------------------------------------------------------------

// Iterator is a convenience wrapper around BlockReader and SectionReader
// which can (forward-) iterate over keys across block and section boundaries.
type Iterator struct {
	r *Reader
	b *BlockReader
	s *SectionReader

	err error
}

// Key returns the key of the current entry.
func (i *Iterator) Key() []byte { return i.s.Key() }

// Value returns the value of the current entry. Please note that values
// are temporary buffers and must be copied if used beyond the next cursor move.
func (i *Iterator) Value() []byte { return i.s.Value() }

// More returns true if more data can be read.
func (i *Iterator) More() bool {
	if i.Err() != nil {
		return false
	}

	return i.s.More() || i.s.Pos()+1 < i.b.NumSections() || i.b.Pos()+1 < i.r.NumBlocks()
}

// Next advances the cursor to the next entry and returns true if successful.
func (i *Iterator) Next() bool {
	if i.Err() != nil {
		return false
	}

	// more entries in the section
	if i.s.More() {
		return i.s.Next()
	}

	// more sections in the block
	if n := i.s.Pos() + 1; n < i.b.NumSections() {
		i.s = i.b.GetSection(n)
		return i.s.Next()
	}

	// more blocks
	if n := i.b.Pos() + 1; n < i.r.NumBlocks() {
		b, err := i.r.GetBlock(n)
		if err != nil {
			i.err = err
			return false
		}
		i.b.Release()
		i.b = b
		i.s = i.b.GetSection(0)
		return i.s.Next()
	}

	return false
}

// Err exposes iterator errors, if any.
func (i *Iterator) Err() error {
	if i.err != nil {
		return i.err
	}
	return i.s.Err()
}

// Release releases the iterator and frees up resources. The iterator must not be used
// after this method is called.
func (i *Iterator) Release() {
	i.b.Release()
	i.err = errReleased
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
