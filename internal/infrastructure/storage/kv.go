package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KV is a namespaced key-value view over the kv table
type KV struct {
	store     *Store
	namespace string
}

// KV returns the key-value view for namespace
func (s *Store) KV(namespace string) *KV {
	return &KV{store: s, namespace: namespace}
}

// Namespace returns the view's namespace
func (kv *KV) Namespace() string { return kv.namespace }

// Get returns the value for key and whether it exists
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.store.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE namespace = ? AND key = ?", kv.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s/%s: %w", kv.namespace, key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (kv *KV) Set(ctx context.Context, key, value string) error {
	_, err := kv.store.db.ExecContext(ctx, `
INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kv.namespace, key, value, kv.store.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("kv set %s/%s: %w", kv.namespace, key, err)
	}
	return nil
}

// Remove deletes key; removing an absent key is not an error
func (kv *KV) Remove(ctx context.Context, key string) error {
	if _, err := kv.store.db.ExecContext(ctx,
		"DELETE FROM kv WHERE namespace = ? AND key = ?", kv.namespace, key); err != nil {
		return fmt.Errorf("kv remove %s/%s: %w", kv.namespace, key, err)
	}
	return nil
}
