package badger

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// Options controls how the database is opened.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory opens a throwaway in-memory database (tests).
	InMemory bool
	// ResetOnStartup deletes any existing database before opening.
	ResetOnStartup bool
}

// DB manages the badger database connection.
type DB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// Open opens the badgerhold store. Records are encoded as JSON so the
// map-typed raw payloads survive round-trips without type registration.
func Open(logger arbor.ILogger, opts Options) (*DB, error) {
	if opts.ResetOnStartup && !opts.InMemory {
		if _, err := os.Stat(opts.Path); err == nil {
			logger.Debug().Str("path", opts.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(opts.Path); err != nil {
				logger.Warn().Err(err).Str("path", opts.Path).Msg("Failed to delete database directory")
			}
		}
	}

	options := badgerhold.DefaultOptions
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal
	options.Logger = nil
	if opts.InMemory {
		options.InMemory = true
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		options.Dir = opts.Path
		options.ValueDir = opts.Path
		logger.Debug().Str("path", opts.Path).Msg("Opening badger database connection")
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &DB{store: store, logger: logger}, nil
}

// Store returns the underlying badgerhold store.
func (d *DB) Store() *badgerhold.Store {
	return d.store
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
