package dirwalk

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// WalkerOptions define walker specific options.
type WalkerOptions struct {
	// NamePrefix must match the prefix used by the generator.
	// Default: DefaultNamePrefix.
	NamePrefix string

	// Rand picks the child indexes of random walks.
	// Default: seeded from the current time.
	Rand *rand.Rand
}

func (o *WalkerOptions) norm() *WalkerOptions {
	var oo WalkerOptions
	if o != nil {
		oo = *o
	}

	if oo.NamePrefix == "" {
		oo.NamePrefix = DefaultNamePrefix
	}
	if oo.Rand == nil {
		oo.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &oo
}

// maxCachedNames bounds the number of directory names a walker keeps.
const maxCachedNames = 1024

// Walker follows ids from the root of a generated tree down to a leaf.
// A walker is owned by a single goroutine; use one walker per goroutine.
type Walker struct {
	s Store
	c *Codec
	o *WalkerOptions

	names map[int]string
	key   []byte
}

// NewWalker inits a new walker.
func NewWalker(s Store, c *Codec, o *WalkerOptions) *Walker {
	return &Walker{
		s:     s,
		c:     c,
		o:     o.norm(),
		names: make(map[int]string),
	}
}

// WalkRandom walks from the root, choosing a child index in [min, max) at
// every level, until a lookup misses. It returns the number of successful
// lookups.
func (w *Walker) WalkRandom(min, max int) (int, error) {
	if min < 0 || min >= max {
		return 0, fmt.Errorf("%w: invalid child range [%d, %d)", ErrConfig, min, max)
	}

	return w.walk(func(int) (int, bool) {
		return min + w.o.Rand.Intn(max-min), true
	})
}

// Walk follows the given child indexes from the root. It stops at the first
// miss or once the path is exhausted and returns the number of successful
// lookups.
func (w *Walker) Walk(path []int) (int, error) {
	for _, i := range path {
		if i < 0 {
			return 0, fmt.Errorf("%w: negative child index %d", ErrConfig, i)
		}
	}

	return w.walk(func(step int) (int, bool) {
		if step < len(path) {
			return path[step], true
		}
		return 0, false
	})
}

func (w *Walker) walk(next func(step int) (int, bool)) (int, error) {
	var id int64
	for steps := 0; ; steps++ {
		idx, ok := next(steps)
		if !ok {
			return steps, nil
		}

		key, err := AppendKey(w.key[:0], id, w.name(idx))
		if err != nil {
			return steps, err
		}
		w.key = key

		val, err := w.s.Get(key)
		if errors.Is(err, ErrNotFound) {
			return steps, nil
		} else if err != nil {
			return steps, fmt.Errorf("dirwalk: lookup at depth %d: %w", steps, err)
		}

		if id, err = w.c.DecodeNextID(val); err != nil {
			return steps, fmt.Errorf("dirwalk: decode at depth %d: %w", steps, err)
		}
	}
}

func (w *Walker) name(i int) string {
	if i >= maxCachedNames {
		return DirName(w.o.NamePrefix, i)
	}

	name, ok := w.names[i]
	if !ok {
		name = DirName(w.o.NamePrefix, i)
		w.names[i] = name
	}
	return name
}
