package index

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

type Stats struct {
	Documents int
	Rows      int
	Elapsed   time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("documents=%d rows=%d elapsed=%s",
		s.Documents, s.Rows, s.Elapsed.Round(time.Millisecond))
}

// Index serves queries from the current generation while Build prepares the
// next one.
type Index struct {
	build   sync.Mutex
	current atomic.Pointer[generation]
}

func New() *Index {
	return &Index{}
}

// Build indexes convs into a fresh generation and swaps it in. The previous
// generation is closed once in-flight readers are done with it. On error the
// current generation is left untouched.
func (x *Index) Build(convs []*parse.Conversation) (Stats, error) {
	x.build.Lock()
	defer x.build.Unlock()

	start := time.Now()
	var stats Stats

	gen, err := openGeneration()
	if err != nil {
		return stats, err
	}

	rows, err := fill(gen.db, convs)
	if err != nil {
		gen.retire()
		return stats, fmt.Errorf("build index: %w", err)
	}
	if gen.docs, err = gen.countDocs(); err != nil {
		gen.retire()
		return stats, fmt.Errorf("count documents: %w", err)
	}

	if old := x.current.Swap(gen); old != nil {
		if err := old.retire(); err != nil {
			logger.Warnf("close previous index: %v", err)
		}
	}

	stats.Documents = gen.docs
	stats.Rows = rows
	stats.Elapsed = time.Since(start)
	logger.Debugf("index built: %s", stats)
	return stats, nil
}

func fill(db *sql.DB, convs []*parse.Conversation) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	docStmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO docs (id, source, project_name, project_path, session_id, session_name, timestamp, message_count, full_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer docStmt.Close()

	ftsStmt, err := tx.Prepare(
		`INSERT INTO docs_fts (doc_id, full_text, project_name, session_id, session_name) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer ftsStmt.Close()

	rows := 0
	for _, c := range convs {
		if c == nil {
			continue
		}
		if _, err := docStmt.Exec(
			c.ID, c.Source, c.ProjectName, c.ProjectPath, c.SessionID,
			c.SessionName, c.Timestamp, c.MessageCount, c.FullText,
		); err != nil {
			return rows, fmt.Errorf("insert %s: %w", c.ID, err)
		}
		if _, err := ftsStmt.Exec(c.ID, c.FullText, c.ProjectName, c.SessionID, c.SessionName); err != nil {
			return rows, fmt.Errorf("index %s: %w", c.ID, err)
		}
		rows++
	}
	return rows, tx.Commit()
}

// View runs fn against the current generation under its read lock. A
// generation retired between lookup and lock is skipped in favour of the
// one that replaced it.
func (x *Index) View(fn func(*sql.DB) error) error {
	for {
		gen := x.current.Load()
		if gen == nil {
			return ErrNoIndex
		}
		ok, err := gen.view(fn)
		if ok {
			return err
		}
	}
}

// DocumentCount is zero before the first build.
func (x *Index) DocumentCount() int {
	gen := x.current.Load()
	if gen == nil {
		return 0
	}
	return gen.docs
}

func (x *Index) Close() error {
	x.build.Lock()
	defer x.build.Unlock()
	if gen := x.current.Swap(nil); gen != nil {
		return gen.retire()
	}
	return nil
}
