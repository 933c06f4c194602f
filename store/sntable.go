package store

import (
	"os"

	"github.com/bsm/dirwalk"
	"github.com/bsm/dirwalk/table"
	"go.uber.org/zap"
)

const sntableFile = "dirwalk.snt"

func writeSNTable(path string, src *dirwalk.MemStore, o *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	to := &table.WriterOptions{Compression: table.NoCompression}
	if o.Compression {
		to.Compression = table.SnappyCompression
	}

	w := table.NewWriter(f, to)
	if err := src.Scan(w.Append); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}

type sntableReader struct {
	readOnly

	f   *os.File
	r   *table.Reader
	log *zap.Logger
}

func openSNTable(path string, log *zap.Logger) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r, err := table.NewReader(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sntableReader{f: f, r: r, log: log}, nil
}

func (r *sntableReader) Get(key []byte) ([]byte, error) {
	val, err := r.r.Get(key)
	if err == table.ErrNotFound {
		return nil, dirwalk.ErrNotFound
	}
	return val, err
}

func (r *sntableReader) Scan(fn func(key, value []byte) error) error {
	iter, err := r.r.Seek(nil)
	if err != nil {
		return err
	}
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *sntableReader) Close() error {
	r.log.Debug("closing store")
	return r.f.Close()
}
