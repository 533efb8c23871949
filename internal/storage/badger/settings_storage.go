package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// settingsEntry is the persisted form of one settings key.
type settingsEntry struct {
	Key   string `json:"key" badgerhold:"key"`
	Value string `json:"value"`
}

// SettingsStorage is the string KV settings table, last-writer-wins.
type SettingsStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewSettingsStorage creates a settings storage instance.
func NewSettingsStorage(db *DB, logger arbor.ILogger) *SettingsStorage {
	return &SettingsStorage{db: db, logger: logger}
}

// Get returns the value for a key.
func (s *SettingsStorage) Get(ctx context.Context, key string) (string, error) {
	var entry settingsEntry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", interfaces.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set writes a key, replacing any prior value.
func (s *SettingsStorage) Set(ctx context.Context, key, value string) error {
	if err := s.db.Store().Upsert(key, &settingsEntry{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a key if present.
func (s *SettingsStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(key, &settingsEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// List returns all settings as a map.
func (s *SettingsStorage) List(ctx context.Context) (map[string]string, error) {
	var entries []*settingsEntry
	if err := s.db.Store().Find(&entries, &badgerhold.Query{}); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}
