package dirwalk

import (
	"errors"
	"strconv"
)

// DefaultNamePrefix is the prefix of all generated directory names.
const DefaultNamePrefix = "/abcdefghijklmno"

// ErrNotFound is returned by stores when a key cannot be found.
var ErrNotFound = errors.New("dirwalk: not found")

var (
	// ErrEncoding is returned when a directory name cannot be encoded as UTF-16.
	ErrEncoding = errors.New("dirwalk: name is not representable as UTF-16")
	// ErrMalformed is returned when a value cannot be decoded by a codec.
	ErrMalformed = errors.New("dirwalk: malformed value")
	// ErrConfig is returned for invalid options, before any store is accessed.
	ErrConfig = errors.New("dirwalk: invalid configuration")
	// ErrIncomplete is returned by Verify when a store does not hold a complete tree.
	ErrIncomplete = errors.New("dirwalk: incomplete tree")
)

// Store is an ordered key/value store.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores a single entry.
	Put(key, value []byte) error
	// Write stores all entries of a batch.
	Write(b *Batch) error
	// Close releases the store.
	Close() error
}

// Scanner is implemented by stores which can visit all their entries.
// Keys and values passed to fn are only valid for the duration of the call.
type Scanner interface {
	Scan(fn func(key, value []byte) error) error
}

// DirName returns the name of the i-th child of any directory.
func DirName(prefix string, i int) string {
	return prefix + strconv.Itoa(i)
}
