package store

import (
	"os"

	"github.com/bsm/dirwalk"
	"github.com/golang/leveldb/db"
	"github.com/golang/leveldb/table"
	"go.uber.org/zap"
)

const sstableFile = "dirwalk.sst"

func sstableOptions(o *Options) *db.Options {
	do := &db.Options{
		BlockSize:            4 * 1024,
		BlockRestartInterval: 16,
		Compression:          db.NoCompression,
	}
	if o.Compression {
		do.Compression = db.SnappyCompression
	}
	return do
}

func writeSSTable(path string, src *dirwalk.MemStore, o *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// the writer closes f
	w := table.NewWriter(f, sstableOptions(o))
	if err := src.Scan(func(key, value []byte) error {
		return w.Set(key, value, nil)
	}); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

type sstableReader struct {
	readOnly

	r   *table.Reader
	log *zap.Logger
}

func openSSTable(path string, o *Options, log *zap.Logger) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &sstableReader{r: table.NewReader(f, sstableOptions(o)), log: log}, nil
}

func (r *sstableReader) Get(key []byte) ([]byte, error) {
	val, err := r.r.Get(key, nil)
	if err == db.ErrNotFound {
		return nil, dirwalk.ErrNotFound
	}
	return val, err
}

func (r *sstableReader) Scan(fn func(key, value []byte) error) error {
	iter := r.r.Find(nil, nil)
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			_ = iter.Close()
			return err
		}
	}
	return iter.Close()
}

func (r *sstableReader) Close() error {
	r.log.Debug("closing store")
	return r.r.Close()
}
