package search

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/flanksource/commons/logger"

	"github.com/Zuo-Peng/chatlog/internal/index"
)

const (
	DefaultLimit = 50

	previewBefore = 80
	previewAfter  = 120
	previewHead   = 200
	ellipsis      = "..."
)

type Result struct {
	ID           string
	Source       string
	ProjectName  string
	SessionName  string
	Timestamp    string
	MessageCount int
	Preview      string
	Rank         float64
}

type Options struct {
	Query   string
	Limit   int
	Project string // substring of the project name, "" = all
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makePreview returns the context around the first case-insensitive
// occurrence of query in text, or the head of text when there is none.
func makePreview(text, query string) string {
	query = strings.TrimSpace(query)
	if query != "" {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
		if err == nil {
			if loc := re.FindStringIndex(text); loc != nil {
				return window(text, loc[0], loc[1])
			}
		}
	}
	runes := []rune(text)
	if len(runes) > previewHead {
		return string(runes[:previewHead]) + ellipsis
	}
	return text
}

// window cuts text around the byte range [from, to).
func window(text string, from, to int) string {
	runes := []rune(text)
	matchStart := len([]rune(text[:from]))
	matchEnd := matchStart + len([]rune(text[from:to]))

	start := matchStart - previewBefore
	if start < 0 {
		start = 0
	}
	end := matchEnd + previewAfter
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// ftsQuery turns free text into an FTS5 expression: every whitespace
// separated token becomes a quoted prefix phrase and all must match,
// each in any indexed column.
func ftsQuery(q string) string {
	tokens := strings.Fields(q)
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(parts, " ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Search never fails: errors are logged and produce an empty result.
func Search(idx *index.Index, opts Options) []Result {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	query := strings.TrimSpace(opts.Query)

	var results []Result
	err := idx.View(func(db *sql.DB) error {
		var err error
		switch {
		case query == "":
			results, err = searchRecent(db, opts)
		case containsCJK(query):
			results, err = searchLike(db, query, opts)
		default:
			results, err = searchFTS(db, query, opts)
			if err != nil {
				logger.Debugf("fts query %q rejected, falling back to substring scan: %v", query, err)
				results, err = searchLike(db, query, opts)
			}
		}
		return err
	})
	if err != nil {
		if err != index.ErrNoIndex {
			logger.Warnf("search %q: %v", query, err)
		}
		return []Result{}
	}
	return results
}

func projectFilter(opts Options, column string, conditions []string, args []interface{}) ([]string, []interface{}) {
	if opts.Project != "" {
		conditions = append(conditions, fmt.Sprintf("instr(%s, ?) > 0", column))
		args = append(args, opts.Project)
	}
	return conditions, args
}

func searchRecent(db *sql.DB, opts Options) ([]Result, error) {
	conditions := []string{"1 = 1"}
	var args []interface{}
	conditions, args = projectFilter(opts, "project_name", conditions, args)

	query := fmt.Sprintf(`
		SELECT id, source, project_name, session_name, timestamp, message_count, full_text
		FROM docs
		WHERE %s
		ORDER BY timestamp DESC, id
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, "", opts.Limit, false)
}

func searchFTS(db *sql.DB, q string, opts Options) ([]Result, error) {
	conditions := []string{"docs_fts MATCH ?"}
	args := []interface{}{ftsQuery(q)}
	conditions, args = projectFilter(opts, "d.project_name", conditions, args)

	query := fmt.Sprintf(`
		SELECT d.id, d.source, d.project_name, d.session_name, d.timestamp, d.message_count, d.full_text,
			bm25(docs_fts) AS rank
		FROM docs_fts
		JOIN docs d ON d.id = docs_fts.doc_id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, q, opts.Limit, true)
}

func searchLike(db *sql.DB, q string, opts Options) ([]Result, error) {
	pattern := "%" + escapeLike(q) + "%"
	conditions := []string{`(full_text LIKE ? ESCAPE '\' OR project_name LIKE ? ESCAPE '\')`}
	args := []interface{}{pattern, pattern}
	conditions, args = projectFilter(opts, "project_name", conditions, args)

	query := fmt.Sprintf(`
		SELECT id, source, project_name, session_name, timestamp, message_count, full_text
		FROM docs
		WHERE %s
		ORDER BY timestamp DESC, id
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("substring query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows, q, opts.Limit, false)
}

// scanResults keeps the first row per document and stops at limit.
func scanResults(rows *sql.Rows, q string, limit int, ranked bool) ([]Result, error) {
	results := []Result{}
	seen := make(map[string]bool)
	for rows.Next() {
		var r Result
		var fullText string
		dest := []interface{}{
			&r.ID, &r.Source, &r.ProjectName, &r.SessionName,
			&r.Timestamp, &r.MessageCount, &fullText,
		}
		if ranked {
			dest = append(dest, &r.Rank)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		r.Preview = makePreview(fullText, q)
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}
	return results, rows.Err()
}
