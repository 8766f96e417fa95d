package index

import (
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

func conv(id, project, text string) *parse.Conversation {
	return &parse.Conversation{
		ID:           id,
		Source:       parse.SourceClaude,
		ProjectName:  project,
		SessionID:    id,
		Timestamp:    "2025-01-01T00:00:00Z",
		MessageCount: 1,
		FullText:     text,
	}
}

func TestBuildAndCount(t *testing.T) {
	idx := New()
	defer idx.Close()

	assert.Equal(t, 0, idx.DocumentCount())
	assert.ErrorIs(t, idx.View(func(*sql.DB) error { return nil }), ErrNoIndex)

	stats, err := idx.Build([]*parse.Conversation{
		conv("a", "p/one", "alpha text"),
		conv("b", "p/two", "beta text"),
		nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, idx.DocumentCount())

	var matched int
	require.NoError(t, idx.View(func(db *sql.DB) error {
		return db.QueryRow(`SELECT COUNT(*) FROM docs_fts WHERE docs_fts MATCH '"alpha"*'`).Scan(&matched)
	}))
	assert.Equal(t, 1, matched)
}

func TestBuildReplacesGeneration(t *testing.T) {
	idx := New()
	defer idx.Close()

	_, err := idx.Build([]*parse.Conversation{conv("a", "p", "x"), conv("b", "p", "y")})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.DocumentCount())

	_, err = idx.Build([]*parse.Conversation{conv("c", "p", "z")})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.DocumentCount())

	var ids []string
	require.NoError(t, idx.View(func(db *sql.DB) error {
		rows, err := db.Query("SELECT id FROM docs")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	}))
	assert.Equal(t, []string{"c"}, ids)

	_, err = idx.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.DocumentCount())
}

func TestReadersDuringRebuild(t *testing.T) {
	idx := New()
	defer idx.Close()
	_, err := idx.Build([]*parse.Conversation{conv("a", "p", "x")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				var n int
				err := idx.View(func(db *sql.DB) error {
					return db.QueryRow("SELECT COUNT(*) FROM docs").Scan(&n)
				})
				assert.NoError(t, err)
				assert.Contains(t, []int{1, 2}, n)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		convs := []*parse.Conversation{conv("a", "p", "x")}
		if i%2 == 0 {
			convs = append(convs, conv("b", "p", "y"))
		}
		_, err := idx.Build(convs)
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestStatsString(t *testing.T) {
	assert.Equal(t, "documents=3 rows=9 elapsed=0s", Stats{Documents: 3, Rows: 9}.String())
}
