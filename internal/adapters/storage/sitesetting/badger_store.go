package sitesetting

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	domain "motoclub/internal/domain/sitesetting"
	"motoclub/internal/logging"
)

const settingsKey = "site_settings:main"

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Open opens (or creates) the settings database at dir.
// An empty dir opens an in-memory database.
// POST: caller closes the returned DB
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return db, nil
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *BadgerStore) Get(ctx context.Context) (domain.Settings, error) {
	settings := domain.Default()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		return domain.Default(), err
	}
	return settings, nil
}

// Set replaces the settings document.
// POST: a subsequent Get returns settings
func (s *BadgerStore) Set(ctx context.Context, settings domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { logging.Error().Msgf("badger: "+f, v...) }
func (badgerLogger) Warningf(f string, v ...any) { logging.Warn().Msgf("badger: "+f, v...) }
func (badgerLogger) Infof(f string, v ...any)    { logging.Debug().Msgf("badger: "+f, v...) }
func (badgerLogger) Debugf(f string, v ...any)   {}
