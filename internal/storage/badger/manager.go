package badger

import (
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/interfaces"
)

// Manager aggregates all typed storages over one badger database and
// implements interfaces.StorageManager.
type Manager struct {
	db           *DB
	logger       arbor.ILogger
	postings     *PostingStorage
	applications *ApplicationStorage
	sourceRuns   *SourceRunStorage
	policies     *PolicyStorage
	catalogue    *CatalogueStorage
	settings     *SettingsStorage
}

// NewManager opens the database and wires the typed storages.
func NewManager(logger arbor.ILogger, opts Options) (*Manager, error) {
	db, err := Open(logger, opts)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:           db,
		logger:       logger,
		postings:     NewPostingStorage(db, logger),
		applications: NewApplicationStorage(db, logger),
		sourceRuns:   NewSourceRunStorage(db, logger),
		policies:     NewPolicyStorage(db, logger),
		catalogue:    NewCatalogueStorage(db, logger),
		settings:     NewSettingsStorage(db, logger),
	}, nil
}

func (m *Manager) Postings() interfaces.PostingStorage         { return m.postings }
func (m *Manager) Applications() interfaces.ApplicationStorage { return m.applications }
func (m *Manager) SourceRuns() interfaces.SourceRunStorage     { return m.sourceRuns }
func (m *Manager) Policies() interfaces.PolicyStorage          { return m.policies }
func (m *Manager) Catalogue() interfaces.CatalogueStorage      { return m.catalogue }
func (m *Manager) Settings() interfaces.SettingsStorage        { return m.settings }

// DB exposes the raw badger handle for backup streaming.
func (m *Manager) DB() *badgerdb.DB {
	return m.db.Store().Badger()
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}
