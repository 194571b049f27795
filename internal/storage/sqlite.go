package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  authors TEXT NOT NULL DEFAULT '[]', -- JSON array
  description TEXT,
  publisher TEXT,
  series TEXT,
  series_index REAL,
  tags TEXT NOT NULL DEFAULT '[]', -- JSON array
  identifiers TEXT NOT NULL DEFAULT '{}', -- JSON object, type -> value
  rating INTEGER,
  published_date TEXT,
  cover TEXT,
  languages TEXT NOT NULL DEFAULT '[]', -- JSON array
  updated_at TEXT
);`

// DefaultDBPath is ~/.bookmeta/books.db, or ./.bookmeta/books.db without a home directory
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".bookmeta", "books.db")
}

// SQLiteStore is a BookStore backed by a single sqlite table
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Book, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, title, authors, description, publisher, series, series_index,
		       tags, identifiers, rating, published_date, cover, languages, updated_at
		FROM books
		WHERE id = ?
	`, id)

	var (
		b               models.Book
		authorsJSON     string
		tagsJSON        string
		identifiersJSON string
		languagesJSON   string
		description     sql.NullString
		publisher       sql.NullString
		series          sql.NullString
		seriesIndex     sql.NullFloat64
		rating          sql.NullInt64
		publishedDate   sql.NullString
		cover           sql.NullString
		updatedAt       sql.NullString
	)

	if err := row.Scan(
		&b.ID, &b.Title, &authorsJSON, &description, &publisher, &series, &seriesIndex,
		&tagsJSON, &identifiersJSON, &rating, &publishedDate, &cover, &languagesJSON, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Book{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return models.Book{}, fmt.Errorf("scan book %s: %w", id, err)
	}

	b.Description = description.String
	b.Publisher = publisher.String
	b.Series = series.String
	b.SeriesIndex = seriesIndex.Float64
	b.Rating = int(rating.Int64)
	b.PublishedDate = publishedDate.String
	b.Cover = cover.String
	if updatedAt.Valid {
		b.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt.String)
	}

	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"authors", authorsJSON, &b.Authors},
		{"tags", tagsJSON, &b.Tags},
		{"identifiers", identifiersJSON, &b.Identifiers},
		{"languages", languagesJSON, &b.Languages},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return models.Book{}, fmt.Errorf("decode %s for book %s: %w", col.name, id, err)
		}
	}

	return b, nil
}

// Commit upserts the whole book inside one transaction
func (s *SQLiteStore) Commit(ctx context.Context, book models.Book) error {
	if book.ID == "" {
		return errors.New("book id is required")
	}

	authors, err := jsonColumn(book.Authors, "[]")
	if err != nil {
		return fmt.Errorf("marshal authors for %s: %w", book.ID, err)
	}
	tags, err := jsonColumn(book.Tags, "[]")
	if err != nil {
		return fmt.Errorf("marshal tags for %s: %w", book.ID, err)
	}
	identifiers, err := jsonColumn(book.Identifiers, "{}")
	if err != nil {
		return fmt.Errorf("marshal identifiers for %s: %w", book.ID, err)
	}
	languages, err := jsonColumn(book.Languages, "[]")
	if err != nil {
		return fmt.Errorf("marshal languages for %s: %w", book.ID, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO books (id, title, authors, description, publisher, series, series_index,
		                   tags, identifiers, rating, published_date, cover, languages, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  authors = excluded.authors,
		  description = excluded.description,
		  publisher = excluded.publisher,
		  series = excluded.series,
		  series_index = excluded.series_index,
		  tags = excluded.tags,
		  identifiers = excluded.identifiers,
		  rating = excluded.rating,
		  published_date = excluded.published_date,
		  cover = excluded.cover,
		  languages = excluded.languages,
		  updated_at = excluded.updated_at
	`,
		book.ID, book.Title, authors, book.Description, book.Publisher, book.Series, book.SeriesIndex,
		tags, identifiers, book.Rating, book.PublishedDate, book.Cover, languages,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("exec upsert for %s: %w", book.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// jsonColumn encodes v, using empty for nil slices and maps so the NOT NULL columns stay valid JSON
func jsonColumn(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}
