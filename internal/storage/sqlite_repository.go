package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	return &SQLiteBackend{db: db, now: time.Now}, nil
}

// OpenSQLite opens path, migrates it to the latest schema and returns a ready
// backend.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps write-through saves strictly ordered.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	backend, err := NewSQLiteBackend(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return backend, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Get(ctx context.Context, group, key string) (string, error) {
	if err := validateKey(group, key); err != nil {
		return "", err
	}
	var value string
	err := b.db.QueryRowContext(ctx, `
		SELECT value FROM config_entries WHERE group_name = ? AND entry_key = ?`, group, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, group, key, value string) error {
	if err := validateKey(group, key); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO config_entries (group_name, entry_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (group_name, entry_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		group, key, value, mustTime(b.now()),
	)
	return err
}

func (b *SQLiteBackend) Delete(ctx context.Context, group, key string) error {
	if err := validateKey(group, key); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, `DELETE FROM config_entries WHERE group_name = ? AND entry_key = ?`, group, key)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (b *SQLiteBackend) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if strings.TrimSpace(filter.Group) == "" {
		return nil, ErrInvalidGroup
	}
	query := `SELECT group_name, entry_key, value, updated_at FROM config_entries WHERE group_name = ?`
	args := []any{filter.Group}
	if filter.Prefix != "" {
		query += ` AND substr(CAST(entry_key AS BLOB), 1, ?) = CAST(? AS BLOB)`
		args = append(args, len(filter.Prefix), filter.Prefix)
	}
	query += ` ORDER BY entry_key ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) ReplacePrefix(ctx context.Context, group, prefix string, values map[string]string) error {
	if strings.TrimSpace(group) == "" {
		return ErrInvalidGroup
	}
	for key := range values {
		if key == "" || !strings.HasPrefix(key, prefix) {
			return fmt.Errorf("%w: %q outside prefix %q", ErrInvalidKey, key, prefix)
		}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM config_entries WHERE group_name = ? AND substr(CAST(entry_key AS BLOB), 1, ?) = CAST(? AS BLOB)`,
		group, len(prefix), prefix); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO config_entries (group_name, entry_key, value, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	updated := mustTime(b.now())
	for key, value := range values {
		if _, err := stmt.ExecContext(ctx, group, key, value, updated); err != nil {
			return fmt.Errorf("write %s/%s: %w", group, key, err)
		}
	}
	return tx.Commit()
}

func validateKey(group, key string) error {
	if strings.TrimSpace(group) == "" {
		return ErrInvalidGroup
	}
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var out Entry
	var updated string
	if err := s.Scan(&out.Group, &out.Key, &out.Value, &updated); err != nil {
		return Entry{}, err
	}
	updatedAt, err := time.Parse(sqliteTimeLayout, updated)
	if err != nil {
		return Entry{}, err
	}
	out.UpdatedAt = updatedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
