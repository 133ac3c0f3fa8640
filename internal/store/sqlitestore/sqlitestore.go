// Package sqlitestore keeps shopping items in an embedded SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/store"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial.sql
var migrationSQL string

type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One writer, and one shared handle for the whole process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(migrationSQL); err != nil {
		return fmt.Errorf("running migration: %w", err)
	}
	slog.Debug("sqlite migration completed")
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_bought FROM shopping_items ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []model.ShoppingItem{}
	for rows.Next() {
		var it model.ShoppingItem
		if err := rows.Scan(&it.ID, &it.Name, &it.IsBought); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, item model.ShoppingItem) (int64, error) {
	if err := store.CheckName(item.Name); err != nil {
		return 0, err
	}
	if item.Persisted() {
		// An explicit id replaces whatever row already holds it.
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO shopping_items (id, name, is_bought) VALUES (?, ?, ?)`,
			item.ID, item.Name, item.IsBought)
		if err != nil {
			return 0, fmt.Errorf("insert item %d: %w", item.ID, err)
		}
		return item.ID, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (name, is_bought) VALUES (?, ?)`,
		item.Name, item.IsBought)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item: last id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, item model.ShoppingItem) error {
	if err := store.CheckName(item.Name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items SET name = ?, is_bought = ? WHERE id = ?`,
		item.Name, item.IsBought, item.ID)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.Debug("update matched no row", "id", item.ID)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, item model.ShoppingItem) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, item.ID)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", item.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.Debug("delete matched no row", "id", item.ID)
	}
	return nil
}
