// Package storage persists API keys.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arandaschimpf/claude-review/internal/core"
)

// MasterKeyName is the name given to the key seeded from MASTER_API_KEY.
const MasterKeyName = "Master Key"

type keyStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewKeyStore creates a core.KeyStore over db. Queries are written with '?'
// placeholders and rebound for the connection's driver.
func NewKeyStore(db *sqlx.DB) core.KeyStore {
	return &keyStore{db: db, now: time.Now}
}

// CreateKey inserts a new key with a random UUID value.
func (s *keyStore) CreateKey(ctx context.Context, name string, isAdmin bool, createdBy string) (*core.APIKey, error) {
	k := &core.APIKey{
		Key:       uuid.NewString(),
		Name:      name,
		IsAdmin:   isAdmin,
		CreatedAt: s.now().UTC(),
	}
	if createdBy != "" {
		k.CreatedBy = &createdBy
	}
	if err := s.insert(ctx, k); err != nil {
		return nil, fmt.Errorf("failed to create api key %q: %w", name, err)
	}
	return k, nil
}

func (s *keyStore) insert(ctx context.Context, k *core.APIKey) error {
	query := s.db.Rebind(`INSERT INTO api_keys (key, name, is_admin, created_at, created_by) VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, k.Key, k.Name, k.IsAdmin, k.CreatedAt, k.CreatedBy)
	return err
}

// FindByKey returns the key record or core.ErrKeyNotFound.
func (s *keyStore) FindByKey(ctx context.Context, key string) (*core.APIKey, error) {
	query := s.db.Rebind(`SELECT id, key, name, is_admin, created_at, created_by FROM api_keys WHERE key = ?`)

	var k core.APIKey
	if err := s.db.GetContext(ctx, &k, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	return &k, nil
}

// ListKeys returns every key, oldest first.
func (s *keyStore) ListKeys(ctx context.Context) ([]*core.APIKey, error) {
	var keys []*core.APIKey
	query := `SELECT id, key, name, is_admin, created_at, created_by FROM api_keys ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// DeleteKey removes key and reports whether it existed.
func (s *keyStore) DeleteKey(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM api_keys WHERE key = ?`), key)
	if err != nil {
		return false, fmt.Errorf("failed to delete api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete api key: %w", err)
	}
	return n > 0, nil
}

// EnsureMasterKey stores key as the admin master key unless it exists.
func (s *keyStore) EnsureMasterKey(ctx context.Context, key string) (bool, error) {
	_, err := s.FindByKey(ctx, key)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, core.ErrKeyNotFound):
		return false, err
	}

	k := &core.APIKey{
		Key:       key,
		Name:      MasterKeyName,
		IsAdmin:   true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.insert(ctx, k); err != nil {
		return false, fmt.Errorf("failed to create master key: %w", err)
	}
	return true, nil
}
