package store

import (
	"github.com/bsm/dirwalk"
	"github.com/colinmarc/cdb"
	"go.uber.org/zap"
)

const cdbFile = "dirwalk.cdb"

func writeCDB(path string, src *dirwalk.MemStore) error {
	w, err := cdb.Create(path)
	if err != nil {
		return err
	}

	if err := src.Scan(w.Put); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

type cdbReader struct {
	readOnly

	db  *cdb.CDB
	log *zap.Logger
}

func openCDB(path string, log *zap.Logger) (Store, error) {
	db, err := cdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &cdbReader{db: db, log: log}, nil
}

func (r *cdbReader) Get(key []byte) ([]byte, error) {
	val, err := r.db.Get(key)
	if err != nil {
		return nil, err
	} else if val == nil {
		return nil, dirwalk.ErrNotFound
	}
	return val, nil
}

// Scan visits entries in insertion order, which is key order for files
// written by this package.
func (r *cdbReader) Scan(fn func(key, value []byte) error) error {
	iter := r.db.Iter()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *cdbReader) Close() error {
	r.log.Debug("closing store")
	return r.db.Close()
}
