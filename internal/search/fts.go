package search

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS shops_fts USING fts5(
    name,
    tokenize='unicode61 remove_diacritics 2'
);`

// FTSIndex is an Index stored in a SQLite FTS5 table. The document ID is
// the FTS rowid.
type FTSIndex struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenFTSIndex opens or creates the index database at path
func OpenFTSIndex(path string) (*FTSIndex, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(ftsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index table: %w", err)
	}

	return &FTSIndex{db: db}, nil
}

func (x *FTSIndex) Upsert(ctx context.Context, doc Document) error {
	if x.closed.Load() {
		return ErrIndexClosed
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertDocument(ctx, tx, doc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document %d: %w", doc.ID, err)
	}
	return nil
}

func (x *FTSIndex) Remove(ctx context.Context, id int64) error {
	if x.closed.Load() {
		return ErrIndexClosed
	}

	if _, err := x.db.ExecContext(ctx, `DELETE FROM shops_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("removing document %d: %w", id, err)
	}
	return nil
}

func (x *FTSIndex) Match(ctx context.Context, query string) ([]int64, error) {
	if x.closed.Load() {
		return nil, ErrIndexClosed
	}

	expr := matchExpression(query)
	if expr == "" {
		return []int64{}, nil
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT rowid FROM shops_fts WHERE shops_fts MATCH ? ORDER BY rank, rowid`, expr)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return ids, nil
}

func (x *FTSIndex) Replace(ctx context.Context, docs []Document) error {
	if x.closed.Load() {
		return ErrIndexClosed
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM shops_fts`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shops_fts (rowid, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Name); err != nil {
			return fmt.Errorf("inserting document %d: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index rebuild: %w", err)
	}
	return nil
}

func (x *FTSIndex) Count(ctx context.Context) (int64, error) {
	if x.closed.Load() {
		return 0, ErrIndexClosed
	}

	var count int64
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops_fts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

func (x *FTSIndex) Close() error {
	if x.closed.Swap(true) {
		return nil
	}
	return x.db.Close()
}

func upsertDocument(ctx context.Context, tx *sql.Tx, doc Document) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM shops_fts WHERE rowid = ?`, doc.ID); err != nil {
		return fmt.Errorf("removing previous document %d: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO shops_fts (rowid, name) VALUES (?, ?)`, doc.ID, doc.Name); err != nil {
		return fmt.Errorf("inserting document %d: %w", doc.ID, err)
	}
	return nil
}

// matchExpression turns free text into an FTS5 query matching any of its
// words. Each word is quoted so FTS5 operators in user input are literal.
func matchExpression(query string) string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, `"`+token+`"`)
	}

	return strings.Join(quoted, " OR ")
}
