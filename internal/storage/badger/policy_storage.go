package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/solicita/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PolicyStorage persists the company blocklist and per-company rate rules.
// Company names are normalised to lowercase before storage and lookup.
type PolicyStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewPolicyStorage creates a policy storage instance.
func NewPolicyStorage(db *DB, logger arbor.ILogger) *PolicyStorage {
	return &PolicyStorage{db: db, logger: logger}
}

func normaliseCompany(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}

// AddBlocklist adds or refreshes a blocklist entry.
func (s *PolicyStorage) AddBlocklist(ctx context.Context, entry *models.CompanyBlocklistEntry) error {
	entry.Company = normaliseCompany(entry.Company)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Store().Upsert(entry.Company, entry); err != nil {
		return fmt.Errorf("failed to blocklist %s: %w", entry.Company, err)
	}
	return nil
}

// RemoveBlocklist deletes a blocklist entry if present.
func (s *PolicyStorage) RemoveBlocklist(ctx context.Context, company string) error {
	err := s.db.Store().Delete(normaliseCompany(company), &models.CompanyBlocklistEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to remove blocklist entry %s: %w", company, err)
	}
	return nil
}

// IsBlocklisted reports whether the company appears in the blocklist.
func (s *PolicyStorage) IsBlocklisted(ctx context.Context, company string) (bool, error) {
	var entry models.CompanyBlocklistEntry
	err := s.db.Store().Get(normaliseCompany(company), &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blocklist for %s: %w", company, err)
	}
	return true, nil
}

// ListBlocklist returns all blocklist entries.
func (s *PolicyStorage) ListBlocklist(ctx context.Context) ([]*models.CompanyBlocklistEntry, error) {
	var entries []*models.CompanyBlocklistEntry
	if err := s.db.Store().Find(&entries, &badgerhold.Query{}); err != nil {
		return nil, fmt.Errorf("failed to list blocklist: %w", err)
	}
	return entries, nil
}

// SetRule stores a per-company rate-limit rule.
func (s *PolicyStorage) SetRule(ctx context.Context, rule *models.CompanyApplicationRule) error {
	rule.Company = normaliseCompany(rule.Company)
	if err := s.db.Store().Upsert(rule.Company, rule); err != nil {
		return fmt.Errorf("failed to save rule for %s: %w", rule.Company, err)
	}
	return nil
}

// GetRule returns the rule for the company, falling back to (2, 14).
func (s *PolicyStorage) GetRule(ctx context.Context, company string) (*models.CompanyApplicationRule, error) {
	var rule models.CompanyApplicationRule
	err := s.db.Store().Get(normaliseCompany(company), &rule)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return &models.CompanyApplicationRule{
			Company:      normaliseCompany(company),
			MaxPerPeriod: models.DefaultMaxPerPeriod,
			PeriodDays:   models.DefaultPeriodDays,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rule for %s: %w", company, err)
	}
	return &rule, nil
}
