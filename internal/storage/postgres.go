package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStorage はPostgreSQLのclient_storageテーブルに保存するStorage実装。
// 複数のクライアントプロセスが同一DBを共有できるよう、namespaceで名前空間を分ける。
type PostgresStorage struct {
	db        *sql.DB
	namespace string
}

// NewPostgresStorage はPostgresStorageを生成する。
func NewPostgresStorage(db *sql.DB, namespace string) *PostgresStorage {
	return &PostgresStorage{db: db, namespace: namespace}
}

// Get はキーに対応する値を返す。
func (p *PostgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM client_storage WHERE namespace = $1 AND storage_key = $2`,
		p.namespace, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get storage value: %w", err)
	}
	return value, true, nil
}

// Set はキーに値を保存する。
func (p *PostgresStorage) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO client_storage (namespace, storage_key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (namespace, storage_key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set storage value: %w", err)
	}
	return nil
}

// Remove はキーを削除する。
func (p *PostgresStorage) Remove(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM client_storage WHERE namespace = $1 AND storage_key = $2`,
		p.namespace, key,
	)
	if err != nil {
		return fmt.Errorf("failed to remove storage value: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Storage = (*PostgresStorage)(nil)
