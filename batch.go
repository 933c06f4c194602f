package dirwalk

// Batch stages key/value pairs for a single Store.Write. A batch is owned by
// one caller and must not be shared.
type Batch struct {
	data  []byte
	index []batchIndex
}

type batchIndex struct {
	pos    int // key offset in data
	keyLen int
	valLen int
}

// Put stages an entry. Key and value are copied.
func (b *Batch) Put(key, value []byte) {
	b.index = append(b.index, batchIndex{pos: len(b.data), keyLen: len(key), valLen: len(value)})
	b.data = append(b.data, key...)
	b.data = append(b.data, value...)
}

// Len returns the number of staged entries.
func (b *Batch) Len() int { return len(b.index) }

// Size returns the accumulated size of all staged keys and values in bytes.
func (b *Batch) Size() int { return len(b.data) }

// Reset clears the batch, retaining allocated memory.
func (b *Batch) Reset() {
	b.data = b.data[:0]
	b.index = b.index[:0]
}

// Replay calls fn for every staged entry in the order of staging. Keys and
// values point into the batch and must be copied if retained beyond the
// next Reset.
func (b *Batch) Replay(fn func(key, value []byte) error) error {
	for _, x := range b.index {
		key := b.data[x.pos : x.pos+x.keyLen]
		val := b.data[x.pos+x.keyLen : x.pos+x.keyLen+x.valLen]
		if err := fn(key, val); err != nil {
			return err
		}
	}
	return nil
}
