package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/okian/pairrank/internal/domain/model"
	"github.com/okian/pairrank/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS rateables (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type TEXT NOT NULL,
    name TEXT NOT NULL,
    value REAL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rateable_identity
    ON rateables(user_id, lower(name), type);

CREATE INDEX IF NOT EXISTS idx_rateable_user_type
    ON rateables(user_id, type);
`

// SQLiteStore implements Store on database/sql with the modernc sqlite
// driver, so the binary stays cgo-free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. CreateSchema is safe to run repeatedly.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// CreateSchema creates all tables needed by the store. Safe to call
// multiple times; every statement uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for health checks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateUser returns the user with username, creating it if absent.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, username string) (model.User, error) {
	user, err := s.GetUser(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.User{}, err
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO users (username) VALUES (?)", username)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a create race; the row exists now.
			return s.GetUser(ctx, username)
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return model.User{ID: id, Username: username}, nil
}

// GetUser returns the user with username.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username FROM users WHERE username = ?", username,
	).Scan(&user.ID, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateItemIfAbsent creates a rateable with a null value, or returns the
// existing item when the (user, lower(name), type) identity is taken.
func (s *SQLiteStore) CreateItemIfAbsent(ctx context.Context, userID int64, itemType, name string) (model.Rateable, bool, error) {
	defer observe("create_item")()

	item, err := s.ItemByName(ctx, userID, itemType, name)
	if err == nil {
		return item, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Rateable{}, false, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO rateables (user_id, type, name, value) VALUES (?, ?, ?, NULL)",
		userID, itemType, name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			item, lookupErr := s.ItemByName(ctx, userID, itemType, name)
			if lookupErr != nil {
				return model.Rateable{}, false, lookupErr
			}
			return item, false, nil
		}
		return model.Rateable{}, false, fmt.Errorf("create item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Rateable{}, false, fmt.Errorf("create item: %w", err)
	}
	return model.Rateable{ID: id, UserID: userID, Type: itemType, Name: name}, true, nil
}

// ItemsByType returns the user's items of itemType ascending by value.
// SQLite sorts NULL first, so unplaced items lead the list.
func (s *SQLiteStore) ItemsByType(ctx context.Context, userID int64, itemType string) ([]model.Rateable, error) {
	defer observe("items_by_type")()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, type, name, value FROM rateables WHERE user_id = ? AND type = ? ORDER BY value ASC, id ASC",
		userID, itemType,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Rateable
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ItemByID returns one of the user's items by id.
func (s *SQLiteStore) ItemByID(ctx context.Context, userID, itemID int64) (model.Rateable, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, type, name, value FROM rateables WHERE user_id = ? AND id = ?",
		userID, itemID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rateable{}, fmt.Errorf("item id %d: %w", itemID, ErrNotFound)
	}
	return item, err
}

// ItemByName returns one of the user's items matched case-insensitively.
func (s *SQLiteStore) ItemByName(ctx context.Context, userID int64, itemType, name string) (model.Rateable, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, type, name, value FROM rateables WHERE user_id = ? AND type = ? AND lower(name) = lower(?)",
		userID, itemType, name,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rateable{}, fmt.Errorf("item %q: %w", name, ErrNotFound)
	}
	return item, err
}

// UpdateValues bulk-overwrites the value of every given item in one
// transaction.
func (s *SQLiteStore) UpdateValues(ctx context.Context, userID int64, items []model.Rateable) error {
	defer observe("update_values")()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update values: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE rateables SET value = ? WHERE user_id = ? AND id = ?")
	if err != nil {
		return fmt.Errorf("update values: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var value sql.NullFloat64
		if item.Value != nil {
			value = sql.NullFloat64{Float64: *item.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, value, userID, item.ID); err != nil {
			return fmt.Errorf("update value of item %d: %w", item.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update values: %w", err)
	}
	return nil
}

// DeleteItem removes one of the user's items.
func (s *SQLiteStore) DeleteItem(ctx context.Context, userID, itemID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM rateables WHERE user_id = ? AND id = ?", userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item id %d: %w", itemID, ErrNotFound)
	}
	return nil
}

// Types returns the distinct item types the user has rated.
func (s *SQLiteStore) Types(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT type FROM rateables WHERE user_id = ? ORDER BY type ASC", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("list types: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	return types, nil
}

// Count returns the number of rateables tracked across all users.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rateables").Scan(&count); err != nil {
		return 0
	}
	return count
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Rateable, error) {
	var item model.Rateable
	var value sql.NullFloat64
	if err := row.Scan(&item.ID, &item.UserID, &item.Type, &item.Name, &value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Rateable{}, err
		}
		return model.Rateable{}, fmt.Errorf("scan item: %w", err)
	}
	if value.Valid {
		v := value.Float64
		item.Value = &v
	}
	return item, nil
}

// isUniqueViolation detects constraint failures from the modernc driver,
// which surfaces them only through the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveStoreLatency(op, float64(time.Since(start).Milliseconds()))
	}
}
