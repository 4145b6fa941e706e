package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/urlclick/shortener/internal/model"
)

var (
	// ErrNotFound means no row matches the short code.
	ErrNotFound = errors.New("short url not found")

	// ErrCodeTaken means the short_code unique constraint rejected an
	// insert. Retryable: callers regenerate the code and try again.
	ErrCodeTaken = errors.New("short code already taken")
)

// Config holds database settings
type Config struct {
	Driver string // "sqlite3" or "postgres"
	DSN    string
}

// URLRepository is the authoritative store for URL mappings and click
// events. Uniqueness of short codes is enforced here, by constraint,
// not by the code generator.
type URLRepository struct {
	db     *sql.DB
	driver string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS urls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    long_url TEXT NOT NULL,
    short_code TEXT NOT NULL UNIQUE,
    enabled BOOLEAN NOT NULL DEFAULT 1,
    expires_at DATETIME,
    click_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS clicks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    short_url_id INTEGER NOT NULL REFERENCES urls(id),
    ip_address TEXT NOT NULL DEFAULT '',
    browser TEXT NOT NULL DEFAULT 'OTHER',
    os TEXT NOT NULL DEFAULT 'OTHER',
    device_type TEXT NOT NULL DEFAULT 'OTHER',
    country TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_clicks_short_url_id ON clicks(short_url_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS urls (
    id BIGSERIAL PRIMARY KEY,
    long_url TEXT NOT NULL,
    short_code TEXT NOT NULL UNIQUE,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    expires_at TIMESTAMPTZ,
    click_count BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS clicks (
    id BIGSERIAL PRIMARY KEY,
    short_url_id BIGINT NOT NULL REFERENCES urls(id),
    ip_address TEXT NOT NULL DEFAULT '',
    browser TEXT NOT NULL DEFAULT 'OTHER',
    os TEXT NOT NULL DEFAULT 'OTHER',
    device_type TEXT NOT NULL DEFAULT 'OTHER',
    country TEXT NOT NULL DEFAULT '',
    city TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_clicks_short_url_id ON clicks(short_url_id);
`

// NewURLRepository opens the database and ensures the schema exists
func NewURLRepository(cfg *Config) (*URLRepository, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	schema := sqliteSchema
	if cfg.Driver == "postgres" {
		schema = postgresSchema
	} else {
		// sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent click transactions
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &URLRepository{db: db, driver: cfg.Driver}, nil
}

// Create persists a new mapping. A unique violation on short_code is
// returned as ErrCodeTaken; the row's ID is filled in on success.
func (r *URLRepository) Create(ctx context.Context, u *model.ShortenedURL) error {
	var expiresAt sql.NullTime
	if u.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *u.ExpiresAt, Valid: true}
	}

	if r.driver == "postgres" {
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO urls (long_url, short_code, enabled, expires_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			u.LongURL, u.ShortCode, u.Enabled, expiresAt,
		).Scan(&u.ID)
		if err != nil {
			return mapInsertError(err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO urls (long_url, short_code, enabled, expires_at) VALUES (?, ?, ?, ?)`,
		u.LongURL, u.ShortCode, u.Enabled, expiresAt,
	)
	if err != nil {
		return mapInsertError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetByShortCode returns the mapping for a code, or ErrNotFound.
// No enabled/expiry filtering happens here.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.ShortenedURL, error) {
	row := r.db.QueryRowContext(ctx, r.bind(
		`SELECT id, long_url, short_code, enabled, expires_at, click_count, created_at
		 FROM urls WHERE short_code = ?`),
		shortCode,
	)
	return scanURL(row)
}

// FindActiveByLongURL returns the enabled mapping for a long URL, or
// ErrNotFound. Disabled rows do not count: their long URL is free to
// be shortened again.
func (r *URLRepository) FindActiveByLongURL(ctx context.Context, longURL string) (*model.ShortenedURL, error) {
	row := r.db.QueryRowContext(ctx, r.bind(
		`SELECT id, long_url, short_code, enabled, expires_at, click_count, created_at
		 FROM urls WHERE long_url = ? AND enabled = ? LIMIT 1`),
		longURL, true,
	)
	return scanURL(row)
}

// RecordClick persists one click event and increments the owning
// row's click_count inside a single transaction. Both effects commit
// together or neither does.
func (r *URLRepository) RecordClick(ctx context.Context, click *model.ClickEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning click transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, r.bind(
		`INSERT INTO clicks (short_url_id, ip_address, browser, os, device_type, country, city)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		click.ShortURLID, click.IPAddress,
		string(click.Browser), string(click.OS), string(click.DeviceType),
		click.Country, click.City,
	)
	if err != nil {
		return fmt.Errorf("inserting click event: %w", err)
	}

	_, err = tx.ExecContext(ctx, r.bind(
		`UPDATE urls SET click_count = click_count + 1 WHERE id = ?`),
		click.ShortURLID,
	)
	if err != nil {
		return fmt.Errorf("incrementing click count: %w", err)
	}

	return tx.Commit()
}

// SetEnabled flips a mapping's enabled state. Rows are never deleted;
// disabling frees the long URL for a new mapping while keeping the
// short code reserved.
func (r *URLRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := r.db.ExecContext(ctx, r.bind(
		`UPDATE urls SET enabled = ? WHERE id = ?`),
		enabled, id,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountClicks returns the number of click events recorded for a URL
func (r *URLRepository) CountClicks(ctx context.Context, shortURLID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, r.bind(
		`SELECT COUNT(*) FROM clicks WHERE short_url_id = ?`),
		shortURLID,
	).Scan(&n)
	return n, err
}

// Close closes the underlying database connection
func (r *URLRepository) Close() error {
	return r.db.Close()
}

// ============================================================
// HELPERS
// ============================================================

// bind rewrites ? placeholders to $1..$n for postgres
func (r *URLRepository) bind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func scanURL(row *sql.Row) (*model.ShortenedURL, error) {
	u := &model.ShortenedURL{}
	var expiresAt sql.NullTime

	err := row.Scan(&u.ID, &u.LongURL, &u.ShortCode, &u.Enabled, &expiresAt, &u.ClickCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		u.ExpiresAt = &t
	}
	return u, nil
}

func mapInsertError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrCodeTaken
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrCodeTaken
	}

	return err
}
