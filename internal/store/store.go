// Package store handles SQLite persistence of saved profiles.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrProfileNotFound is returned when no profile has the requested name.
var ErrProfileNotFound = errors.New("profile not found")

// Store wraps SQLite access for profile data.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profile_entries (
			profile_id TEXT NOT NULL,
			category TEXT NOT NULL,
			position INTEGER NOT NULL,
			frequency REAL,
			percentile REAL,
			PRIMARY KEY (profile_id, category)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_profile_entries_profile ON profile_entries(profile_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveProfile stores data under name, replacing any previous entries.
func (s *Store) SaveProfile(ctx context.Context, name string, data shots.Store) (model.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Profile{}, fmt.Errorf("profile name must not be empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Profile{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	now := s.now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	profile, err := lookupProfile(ctx, tx, name)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		profile = model.Profile{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO profiles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			profile.ID, profile.Name, stamp, stamp); err != nil {
			return model.Profile{}, err
		}
	case err != nil:
		return model.Profile{}, err
	default:
		profile.UpdatedAt = now
		if _, err = tx.ExecContext(ctx, `UPDATE profiles SET updated_at = ? WHERE id = ?`, stamp, profile.ID); err != nil {
			return model.Profile{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM profile_entries WHERE profile_id = ?`, profile.ID); err != nil {
			return model.Profile{}, err
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profile_entries (profile_id, category, position, frequency, percentile)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return model.Profile{}, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, e := range data.Entries() {
		if _, err = stmt.ExecContext(ctx, profile.ID, string(e.Category), i,
			nullableValue(e.Entry.Frequency), nullableValue(e.Entry.Percentile)); err != nil {
			return model.Profile{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return model.Profile{}, err
	}
	return profile, nil
}

// LoadProfile returns the snapshot saved under name.
func (s *Store) LoadProfile(ctx context.Context, name string) (shots.Store, error) {
	profile, err := lookupProfile(ctx, s.db, strings.TrimSpace(name))
	if err != nil {
		return shots.Store{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, frequency, percentile FROM profile_entries
		 WHERE profile_id = ? ORDER BY position ASC`, profile.ID)
	if err != nil {
		return shots.Store{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	data := shots.New()
	for rows.Next() {
		var category string
		var freq, pct sql.NullFloat64
		if err := rows.Scan(&category, &freq, &pct); err != nil {
			return shots.Store{}, err
		}
		c := model.Category(category)
		if !c.Valid() {
			// Categories no longer in the registry are skipped.
			continue
		}
		if data, err = data.SetFrequency(c, valueOrNaN(freq)); err != nil {
			return shots.Store{}, err
		}
		if data, err = data.SetPercentile(c, valueOrNaN(pct)); err != nil {
			return shots.Store{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return shots.Store{}, err
	}
	return data, nil
}

// ListProfiles returns all profiles ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM profiles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// DeleteProfile removes a profile and its entries.
func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	profile, err := lookupProfile(ctx, tx, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM profile_entries WHERE profile_id = ?`, profile.ID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, profile.ID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func lookupProfile(ctx context.Context, q rowQueryer, name string) (model.Profile, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM profiles WHERE name = ?`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return p, err
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var p model.Profile
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
		return model.Profile{}, err
	}
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Profile{}, err
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func nullableValue(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func valueOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
