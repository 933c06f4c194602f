package dirwalk

import (
	"fmt"
	"math"
)

// MaxTreeSize is the largest number of entries a tree may hold.
const MaxTreeSize = 1 << 32

// TreeSize returns the number of entries of a tree with dirsPerLevel
// children per directory and the given number of levels. The root is not
// stored and therefore not counted. Counts beyond math.MaxInt64 saturate.
func TreeSize(dirsPerLevel, levels int) int64 {
	if dirsPerLevel < 1 || levels < 1 {
		return 0
	}

	d := int64(dirsPerLevel)
	var total, width int64 = 0, 1
	for i := 0; i < levels; i++ {
		if width > math.MaxInt64/d {
			return math.MaxInt64
		}
		width *= d
		if total > math.MaxInt64-width {
			return math.MaxInt64
		}
		total += width
	}
	return total
}

// CheckShape returns ErrConfig unless dirsPerLevel and levels describe a tree
// of at most MaxTreeSize entries.
func CheckShape(dirsPerLevel, levels int) error {
	if dirsPerLevel < 1 || levels < 0 {
		return fmt.Errorf("%w: invalid tree shape %dx%d", ErrConfig, dirsPerLevel, levels)
	}
	if n := TreeSize(dirsPerLevel, levels); n > MaxTreeSize {
		return fmt.Errorf("%w: tree shape %dx%d exceeds %d entries", ErrConfig, dirsPerLevel, levels, int64(MaxTreeSize))
	}
	return nil
}

// Verify scans all entries of a store and checks that they form a complete
// tree of the given shape: every value decodes to a distinct id in
// 1..TreeSize. It returns the number of scanned entries.
func Verify(s Scanner, c *Codec, dirsPerLevel, levels int) (int64, error) {
	if err := CheckShape(dirsPerLevel, levels); err != nil {
		return 0, err
	}

	expected := TreeSize(dirsPerLevel, levels)
	seen := make([]uint64, (expected+63)/64)

	var n int64
	err := s.Scan(func(key, value []byte) error {
		n++
		if n > expected {
			return fmt.Errorf("%w: more than %d entries", ErrIncomplete, expected)
		}

		id, err := c.DecodeNextID(value)
		if err != nil {
			return fmt.Errorf("dirwalk: decode value of key %x: %w", key, err)
		}
		if id < 1 || id > expected {
			return fmt.Errorf("%w: id %d of key %x is out of range", ErrIncomplete, id, key)
		}

		pos, bit := (id-1)/64, uint64(1)<<uint((id-1)%64)
		if seen[pos]&bit != 0 {
			return fmt.Errorf("%w: duplicate id %d at key %x", ErrIncomplete, id, key)
		}
		seen[pos] |= bit
		return nil
	})
	if err != nil {
		return n, err
	}

	if n != expected {
		return n, fmt.Errorf("%w: found %d of %d entries", ErrIncomplete, n, expected)
	}
	return n, nil
}
