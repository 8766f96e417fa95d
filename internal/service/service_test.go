package service

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlog/internal/index"
	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/scan"
)

func writeSession(t *testing.T, root, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

const sessionA = "7a1d2c3b-0000-4a2b-9c3d-0123456789ab"

func corpus(t *testing.T) string {
	root := t.TempDir()
	writeSession(t, root, "-home-dev-shop-api/"+sessionA+".jsonl",
		`{"type":"user","sessionId":"`+sessionA+`","timestamp":"2025-04-01T10:00:00Z","message":{"role":"user","content":"why is the checkout endpoint slow"}}`,
		`{"type":"assistant","timestamp":"2025-04-01T10:00:05Z","message":{"role":"assistant","content":[{"type":"text","text":"The checkout handler runs a query per item."}]}}`,
	)
	writeSession(t, root, "-home-dev-shop-web/b.jsonl",
		`{"type":"user","timestamp":"2025-04-02T10:00:00Z","message":{"role":"user","content":"style the cart page"}}`,
	)
	writeSession(t, root, "-home-dev-shop-web/empty.jsonl")
	return root
}

func TestRebuildAndSearch(t *testing.T) {
	svc := New(scan.Roots{Claude: corpus(t)}, scan.DiscoverOptions{})
	defer svc.Close()

	assert.Empty(t, svc.Search("checkout", 10, ""))
	assert.Equal(t, Stats{}, svc.GetStats())

	var notified []RebuildStats
	svc.Subscribe(func(s RebuildStats) { notified = append(notified, s) })

	stats, err := svc.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scan.Discovered)
	assert.Equal(t, 2, stats.Scan.Parsed)
	assert.Equal(t, 2, stats.Index.Documents)
	require.Len(t, notified, 1)
	assert.Equal(t, stats, notified[0])

	assert.Equal(t, Stats{ConversationCount: 2, ProjectCount: 2, DocumentCount: 2}, svc.GetStats())
	assert.Equal(t, []string{"/home/dev/shop/api", "/home/dev/shop/web"}, svc.GetProjects())

	results := svc.Search("checkout", 10, "")
	require.Len(t, results, 1)
	conv := svc.GetConversation(results[0].ID)
	require.NotNil(t, conv)
	assert.Equal(t, sessionA, conv.SessionID)
	assert.Contains(t, results[0].Preview, "checkout")

	recent := svc.Search("", 10, "")
	require.Len(t, recent, 2)
	assert.Equal(t, "shop/web", recent[0].ProjectName)

	assert.Len(t, svc.Search("", 10, "api"), 1)
}

func TestSessionIDRoundTrip(t *testing.T) {
	svc := New(scan.Roots{Claude: corpus(t)}, scan.DiscoverOptions{})
	defer svc.Close()
	_, err := svc.Rebuild()
	require.NoError(t, err)

	for _, id := range []string{sessionA, "b"} {
		var found bool
		for _, r := range svc.Search(id, 10, "") {
			if c := svc.GetConversation(r.ID); c != nil && c.SessionID == id {
				found = true
			}
		}
		assert.True(t, found, id)
	}
}

func TestRebuildRejectsConcurrentRebuild(t *testing.T) {
	svc := New(scan.Roots{Claude: corpus(t)}, scan.DiscoverOptions{})
	defer svc.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc.Subscribe(func(RebuildStats) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	done := make(chan error)
	go func() {
		_, err := svc.Rebuild()
		done <- err
	}()

	<-entered
	assert.True(t, svc.Rebuilding())
	_, err := svc.Rebuild()
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, svc.Rebuilding())

	_, err = svc.Rebuild()
	assert.NoError(t, err)
}

func TestLookup(t *testing.T) {
	root := corpus(t)
	svc := New(scan.Roots{Claude: root}, scan.DiscoverOptions{})
	defer svc.Close()
	_, err := svc.Rebuild()
	require.NoError(t, err)

	byPath, err := svc.Lookup(filepath.Join(root, "-home-dev-shop-web", "b.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "b", byPath.SessionID)

	bySession, err := svc.Lookup(sessionA)
	require.NoError(t, err)
	assert.Equal(t, sessionA, bySession.SessionID)

	byPrefix, err := svc.Lookup(sessionA[:8])
	require.NoError(t, err)
	assert.Equal(t, sessionA, byPrefix.SessionID)

	_, err = svc.Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebuildFailureKeepsPreviousGeneration(t *testing.T) {
	root := corpus(t)
	svc := New(scan.Roots{Claude: root}, scan.DiscoverOptions{})
	defer svc.Close()
	_, err := svc.Rebuild()
	require.NoError(t, err)
	before := svc.GetStats()

	added := writeSession(t, root, "-home-dev-shop-docs/c.jsonl",
		`{"type":"user","timestamp":"2025-04-03T10:00:00Z","message":{"role":"user","content":"write the changelog"}}`,
	)
	svc.build = func([]*parse.Conversation) (index.Stats, error) {
		return index.Stats{}, errors.New("out of memory")
	}

	var notified int
	svc.Subscribe(func(RebuildStats) { notified++ })
	_, err = svc.Rebuild()
	require.Error(t, err)
	assert.Zero(t, notified)

	assert.Nil(t, svc.GetConversation(added))
	assert.Equal(t, before, svc.GetStats())
	assert.NotContains(t, svc.GetProjects(), "/home/dev/shop/docs")
	assert.Empty(t, svc.Search("changelog", 10, ""))

	svc.build = svc.index.Build
	_, err = svc.Rebuild()
	require.NoError(t, err)
	assert.NotNil(t, svc.GetConversation(added))
	assert.Len(t, svc.Search("changelog", 10, ""), 1)
	assert.Equal(t, 1, notified)
}

func TestScanLeavesCacheUntouched(t *testing.T) {
	svc := New(scan.Roots{Claude: corpus(t)}, scan.DiscoverOptions{})
	defer svc.Close()

	convs, stats := svc.Scan()
	assert.Len(t, convs, 2)
	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, Stats{}, svc.GetStats())
	assert.Nil(t, svc.GetConversation(convs[0].ID))
}
