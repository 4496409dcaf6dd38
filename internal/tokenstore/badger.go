package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

// DBStore persists the token in a local Badger database. Each credential is
// one record under the token/ key prefix; steady state is zero or one record,
// and Read self-heals any surplus left behind by an interrupted invocation.
type DBStore struct {
	db *badger.DB
}

// Compile-time check to ensure DBStore implements TokenStore
var _ TokenStore = (*DBStore)(nil)

var tokenKeyPrefix = []byte("token/")

// NewDBStore opens (creating if necessary) the Badger database at dir.
// The caller owns the store and must Close it.
func NewDBStore(dir string) (*DBStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("database directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: slog.Default()}
	// The token must survive a process exiting immediately after login.
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}

	return &DBStore{db: db}, nil
}

// Read returns the first token record found. When more than one record exists
// the extras are deleted opportunistically; a failed cleanup is logged, not
// returned.
func (s *DBStore) Read(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		token   string
		found   bool
		surplus [][]byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tokenKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if !found {
				value, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				token = string(value)
				found = true
				continue
			}
			surplus = append(surplus, item.KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("reading token database: %w", err)
	}

	if len(surplus) > 0 {
		if err := s.deleteKeys(surplus); err != nil {
			slog.WarnContext(ctx, "failed to remove duplicate token records", "count", len(surplus), "error", err)
		} else {
			slog.InfoContext(ctx, "removed duplicate token records", "count", len(surplus))
		}
	}

	return token, found, nil
}

// Save replaces every stored record with a single new one inside one Badger
// transaction, so an observer never sees a cleared-but-not-inserted store.
func (s *DBStore) Save(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := append(append([]byte{}, tokenKeyPrefix...), uuid.NewString()...)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deleteTokenRecords(txn); err != nil {
			return err
		}
		return txn.Set(key, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Clear deletes every token record. Absence of records is not an error.
func (s *DBStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Update(deleteTokenRecords); err != nil {
		return fmt.Errorf("clearing token database: %w", err)
	}
	return nil
}

// Close releases the underlying database. The store is unusable afterwards.
func (s *DBStore) Close() error {
	return s.db.Close()
}

func (s *DBStore) deleteKeys(keys [][]byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// deleteTokenRecords removes every token/ record inside txn. Keys are
// collected before deleting so the iterator is closed first.
func deleteTokenRecords(txn *badger.Txn) error {
	keys, err := collectTokenKeys(txn)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func collectTokenKeys(txn *badger.Txn) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = tokenKeyPrefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// badgerLogger adapts slog to Badger's logger interface. Badger reports
// routine open/compaction chatter at info, which is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
