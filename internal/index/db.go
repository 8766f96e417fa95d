package index

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = OFF;
PRAGMA synchronous = OFF;
PRAGMA temp_store = MEMORY;

CREATE TABLE docs (
    id            TEXT PRIMARY KEY,
    source        TEXT NOT NULL,
    project_name  TEXT NOT NULL DEFAULT '',
    project_path  TEXT NOT NULL DEFAULT '',
    session_id    TEXT NOT NULL DEFAULT '',
    session_name  TEXT NOT NULL DEFAULT '',
    timestamp     TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    full_text     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX docs_timestamp ON docs (timestamp DESC, id);

-- one row per document; query terms may match in different columns
CREATE VIRTUAL TABLE docs_fts USING fts5(
    doc_id UNINDEXED,
    full_text,
    project_name,
    session_id,
    session_name,
    tokenize='unicode61'
);
`

// ErrNoIndex is returned by queries issued before the first build.
var ErrNoIndex = errors.New("index not built")

// generation is one complete build. Readers hold mu for reading while they
// query; retiring a generation takes mu for writing before closing db.
type generation struct {
	mu     sync.RWMutex
	db     *sql.DB
	docs   int
	closed bool
}

func openGeneration() (*generation, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &generation{db: db}, nil
}

func (g *generation) retire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.db.Close()
}

// view runs fn against the generation. It reports false when the
// generation was retired before the read lock was acquired.
func (g *generation) view(fn func(*sql.DB) error) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return false, nil
	}
	return true, fn(g.db)
}

func (g *generation) countDocs() (int, error) {
	var n int
	err := g.db.QueryRow("SELECT COUNT(*) FROM docs").Scan(&n)
	return n, err
}
