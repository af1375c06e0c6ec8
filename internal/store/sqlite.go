// ABOUTME: SQLite implementation of ItemStore using modernc.org/sqlite or mattn/go-sqlite3
// ABOUTME: Provides the items table with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by NewSQLiteStore.
const (
	DriverModernc = "sqlite"  // pure Go, default
	DriverCGO     = "sqlite3" // mattn/go-sqlite3, needs cgo
)

// SQLiteStore implements ItemStore using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// An empty driver selects the pure Go driver.
// The schema is automatically created if it doesn't exist.
func NewSQLiteStore(driver, path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	switch driver {
	case "":
		driver = DriverModernc
	case DriverModernc, DriverCGO:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path, "driver", driver)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			header      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			media       TEXT NOT NULL DEFAULT '',
			valid_until TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Count returns the number of items
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// FetchByOffset returns the first item of the id-ascending window [offset, offset+limit)
func (s *SQLiteStore) FetchByOffset(ctx context.Context, limit, offset int) (*Item, error) {
	if limit <= 0 {
		limit = 1
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, header, description, media, valid_until, created_at
		FROM items
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	return scanItem(row)
}

// FetchByID returns the item with the given id
func (s *SQLiteStore) FetchByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, header, description, media, valid_until, created_at
		FROM items
		WHERE id = ?
	`, id)
	return scanItem(row)
}

// CreateItem inserts an item and sets its ID
func (s *SQLiteStore) CreateItem(ctx context.Context, item *Item) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (owner_id, name, header, description, media, valid_until, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.OwnerID, item.Name, item.Header, item.Description, item.Media,
		item.ValidUntil.UTC().Format(time.RFC3339), item.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading item id: %w", err)
	}
	item.ID = id
	return nil
}

// ListItems returns items in id order; limit <= 0 means no limit
func (s *SQLiteStore) ListItems(ctx context.Context, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, header, description, media, valid_until, created_at
		FROM items
		ORDER BY id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteItem removes an item
func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item       Item
		validUntil string
		createdAt  string
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Header, &item.Description,
		&item.Media, &validUntil, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	if item.ValidUntil, err = time.Parse(time.RFC3339, validUntil); err != nil {
		return nil, fmt.Errorf("parsing valid_until: %w", err)
	}
	if item.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &item, nil
}

var _ ItemStore = (*SQLiteStore)(nil)
