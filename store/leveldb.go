package store

import (
	"github.com/bsm/dirwalk"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"
)

type levelDB struct {
	db  *leveldb.DB
	log *zap.Logger
}

func openLevelDB(dir string, o *Options, log *zap.Logger, create bool) (Store, error) {
	lo := &opt.Options{
		BlockCacheCapacity: o.CacheMB * opt.MiB,
		Compression:        opt.NoCompression,
		ErrorIfMissing:     !create,
	}
	if o.Compression {
		lo.Compression = opt.SnappyCompression
	}

	db, err := leveldb.OpenFile(dir, lo)
	if err != nil {
		return nil, err
	}
	return &levelDB{db: db, log: log}, nil
}

func (s *levelDB) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, dirwalk.ErrNotFound
	}
	return val, err
}

func (s *levelDB) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *levelDB) Write(b *dirwalk.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	wb := new(leveldb.Batch)
	_ = b.Replay(func(key, value []byte) error {
		wb.Put(key, value)
		return nil
	})
	return s.db.Write(wb, nil)
}

func (s *levelDB) Scan(fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *levelDB) Close() error {
	s.log.Debug("closing store")
	return s.db.Close()
}
