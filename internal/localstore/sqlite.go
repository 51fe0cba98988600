package localstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/funmbia/Novelty/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	cartSlotKey      = "cart"
	reloadPendingKey = "reload_pending"
)

// SQLiteStore persists the guest cart slot in a device-local sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the slot database at path and runs
// the schema migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open slot database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Cart, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, cartSlotKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to load cart slot: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		// A corrupt slot is treated as absent rather than poisoning every read.
		log.Printf("discarding malformed cart slot: %v", err)
		return domain.Cart{}, nil
	}

	return domain.Cart{Lines: Normalize(lines)}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal cart slot: %w", err)
	}
	return s.setSlot(ctx, cartSlotKey, string(raw))
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, cartSlotKey)
	if err != nil {
		return fmt.Errorf("failed to clear cart slot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetReloadPending(ctx context.Context) error {
	return s.setSlot(ctx, reloadPendingKey, "1")
}

func (s *SQLiteStore) ConsumeReloadPending(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, reloadPendingKey)
	if err != nil {
		return false, fmt.Errorf("failed to consume reload flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume reload flag: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) setSlot(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}
