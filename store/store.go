// Package store opens the on-disk backends a directory tree can be
// generated into and queried from.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsm/dirwalk"
	"go.uber.org/zap"
)

var (
	// ErrReadOnly is returned when writing to a store opened by Open whose
	// kind cannot be modified once written.
	ErrReadOnly = errors.New("store: is read-only")
	// ErrExists is returned by Create when the target directory is not empty.
	ErrExists = errors.New("store: already exists")

	errClosed = errors.New("store: is closed")
)

// Kind identifies a store backend.
type Kind string

// Supported kinds.
const (
	KindLevelDB Kind = "leveldb" // github.com/syndtr/goleveldb
	KindBadger  Kind = "badger"  // github.com/dgraph-io/badger
	KindCDB     Kind = "cdb"     // github.com/colinmarc/cdb
	KindSSTable Kind = "sstable" // github.com/golang/leveldb/table
	KindSNTable Kind = "sntable" // github.com/bsm/dirwalk/table
)

// Kinds lists all supported kinds.
var Kinds = []Kind{KindLevelDB, KindBadger, KindCDB, KindSSTable, KindSNTable}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown store kind %q", dirwalk.ErrConfig, s)
}

// isTable returns true for kinds which are written once, on Close.
func (k Kind) isTable() bool {
	return k == KindCDB || k == KindSSTable || k == KindSNTable
}

// Options define store specific options.
type Options struct {
	// CacheMB is the block cache size of leveldb stores in MiB.
	// Default: 8.
	CacheMB int

	// Compression enables snappy block compression for leveldb,
	// sstable and sntable stores.
	// Default: false.
	Compression bool

	// Logger receives lifecycle events.
	// Default: no logging.
	Logger *zap.Logger
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.CacheMB <= 0 {
		oo.CacheMB = 8
	}
	if oo.Logger == nil {
		oo.Logger = zap.NewNop()
	}
	return &oo
}

// Store is a dirwalk.Store which can also be scanned.
type Store interface {
	dirwalk.Store
	dirwalk.Scanner
}

// Create creates a new store in dir for generation. The directory must
// not exist or be empty. Table kinds hold all entries in memory and write
// their file on Close.
func Create(kind Kind, dir string, o *Options) (Store, error) {
	oo := o.norm()
	if err := checkEmpty(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	log := oo.Logger.With(zap.String("kind", string(kind)), zap.String("dir", dir))
	log.Debug("creating store")

	switch kind {
	case KindLevelDB:
		return openLevelDB(dir, oo, log, true)
	case KindBadger:
		return openBadger(dir, log)
	case KindCDB:
		return newStaged(filepath.Join(dir, cdbFile), log, writeCDB), nil
	case KindSSTable:
		return newStaged(filepath.Join(dir, sstableFile), log, func(path string, src *dirwalk.MemStore) error {
			return writeSSTable(path, src, oo)
		}), nil
	case KindSNTable:
		return newStaged(filepath.Join(dir, sntableFile), log, func(path string, src *dirwalk.MemStore) error {
			return writeSNTable(path, src, oo)
		}), nil
	}
	return nil, fmt.Errorf("%w: unknown store kind %q", dirwalk.ErrConfig, kind)
}

// Open opens an existing store in dir. Stores of table kinds are read-only.
func Open(kind Kind, dir string, o *Options) (Store, error) {
	oo := o.norm()
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	log := oo.Logger.With(zap.String("kind", string(kind)), zap.String("dir", dir))
	log.Debug("opening store")

	switch kind {
	case KindLevelDB:
		return openLevelDB(dir, oo, log, false)
	case KindBadger:
		return openBadger(dir, log)
	case KindCDB:
		return openCDB(filepath.Join(dir, cdbFile), log)
	case KindSSTable:
		return openSSTable(filepath.Join(dir, sstableFile), oo, log)
	case KindSNTable:
		return openSNTable(filepath.Join(dir, sntableFile), log)
	}
	return nil, fmt.Errorf("%w: unknown store kind %q", dirwalk.ErrConfig, kind)
}

func checkEmpty(dir string) error {
	f, err := os.Open(dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err == io.EOF {
		return nil
	} else if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrExists, dir)
}

// --------------------------------------------------------------------

type readOnly struct{}

func (readOnly) Put(_, _ []byte) error        { return ErrReadOnly }
func (readOnly) Write(_ *dirwalk.Batch) error { return ErrReadOnly }

// staged collects entries of table kinds in sorted order until Close.
type staged struct {
	*dirwalk.MemStore

	path   string
	log    *zap.Logger
	write  func(string, *dirwalk.MemStore) error
	closed bool
}

func newStaged(path string, log *zap.Logger, write func(string, *dirwalk.MemStore) error) *staged {
	return &staged{
		MemStore: dirwalk.NewMemStore(),
		path:     path,
		log:      log,
		write:    write,
	}
}

func (s *staged) Close() error {
	if s.closed {
		return errClosed
	}
	s.closed = true

	if err := s.write(s.path, s.MemStore); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}

	s.log.Info("wrote table", zap.String("path", s.path), zap.Int("entries", s.Len()))
	return nil
}
