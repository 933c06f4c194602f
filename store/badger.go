package store

import (
	"github.com/bsm/dirwalk"
	"github.com/dgraph-io/badger"
	"go.uber.org/zap"
)

type badgerDB struct {
	db  *badger.DB
	log *zap.Logger
}

func openBadger(dir string, log *zap.Logger) (Store, error) {
	bo := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{log.Sugar()})

	db, err := badger.Open(bo)
	if err != nil {
		return nil, err
	}
	return &badgerDB{db: db, log: log}, nil
}

func (s *badgerDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, dirwalk.ErrNotFound
	}
	return val, err
}

func (s *badgerDB) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Write commits the batch in as few transactions as badger permits.
func (s *badgerDB) Write(b *dirwalk.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	err := b.Replay(func(key, value []byte) error {
		err := txn.Set(key, value)
		if err != badger.ErrTxnTooBig {
			return err
		}

		if err := txn.Commit(); err != nil {
			return err
		}
		txn = s.db.NewTransaction(true)
		return txn.Set(key, value)
	})
	if err != nil {
		return err
	}
	return txn.Commit()
}

func (s *badgerDB) Scan(fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if err := item.Value(func(val []byte) error {
				return fn(item.Key(), val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *badgerDB) Close() error {
	s.log.Debug("closing store")
	return s.db.Close()
}

// badgerLogger routes badger's log output to zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
