package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func userLine(ts, text string) string {
	return `{"type":"user","timestamp":"` + ts + `","message":{"role":"user","content":"` + text + `"}}` + "\n"
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "-a-proj/one.jsonl", userLine("2025-01-01T00:00:00Z", "x"))
	writeFile(t, root, "-a-proj/notes.txt", "ignored")
	writeFile(t, root, "-a-proj/sessions-index.jsonl", "{}")
	writeFile(t, root, "-a-proj/subagents/agent.jsonl", "{}")
	writeFile(t, root, "-a-proj/tool-results/r.jsonl", "{}")
	writeFile(t, root, ".hidden/h.jsonl", "{}")
	writeFile(t, root, "-b-proj/.dot.jsonl", "{}")
	writeFile(t, root, "-b-proj/two.jsonl", "{}")
	writeFile(t, root, "-tmp-scratch/three.jsonl", "{}")
	writeFile(t, root, "-c-proj/extra/four.jsonl", "{}")

	files, err := Discover(Roots{Claude: root}, DiscoverOptions{
		ExcludedDirs: []string{"extra"},
		Exclude:      []string{"-tmp-*/**"},
	})
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		rels = append(rels, filepath.ToSlash(rel))
		assert.Equal(t, "claude", f.Source)
	}
	assert.ElementsMatch(t, []string{"-a-proj/one.jsonl", "-b-proj/two.jsonl"}, rels)
}

func TestDiscoverMissingRoots(t *testing.T) {
	files, err := Discover(Roots{
		Claude: filepath.Join(t.TempDir(), "nope"),
		Codex:  filepath.Join(t.TempDir(), "nope"),
	}, DiscoverOptions{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverSkipsUnreadableRoot(t *testing.T) {
	codex := t.TempDir()
	writeFile(t, codex, "2025/01/01/rollout-a.jsonl", "{}")
	blocker := writeFile(t, t.TempDir(), "not-a-dir", "x")

	files, err := Discover(Roots{
		Claude: filepath.Join(blocker, "projects"),
		Codex:  codex,
	}, DiscoverOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude root")
	require.Len(t, files, 1)
	assert.Equal(t, "codex", files[0].Source)
}

func TestScanAllSkipsZeroByteFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "-p-q/empty.jsonl", "")
	writeFile(t, root, "-p-q/full.jsonl", userLine("2025-01-01T00:00:00Z", "hello"))

	s := NewScanner(Roots{Claude: root}, DiscoverOptions{})
	convs, stats := s.ScanAll()
	require.Len(t, convs, 1)
	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 1, stats.Empty)
	assert.Equal(t, "hello", convs[0].FullText)
}

func TestScanAllOrderingAndProjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "-w-alpha/a.jsonl", userLine("2025-01-02T00:00:00Z", "a"))
	writeFile(t, root, "-w-beta/b.jsonl", userLine("2025-01-03T00:00:00Z", "b"))
	writeFile(t, root, "-w-alpha/c.jsonl", userLine("2025-01-02T00:00:00Z", "c"))
	writeFile(t, root, "-w-gamma/noise.jsonl", "not json\n")

	s := NewScanner(Roots{Claude: root}, DiscoverOptions{})
	convs, stats := s.ScanAll()
	require.Len(t, convs, 3)
	assert.Equal(t, 1, stats.Empty)

	assert.Equal(t, "b", convs[0].SessionID)
	// equal timestamps fall back to id order
	assert.Equal(t, "a", convs[1].SessionID)
	assert.Equal(t, "c", convs[2].SessionID)

	assert.Equal(t, []string{"/w/alpha", "/w/beta"}, s.GetProjects())
}

func TestGetProjectsKeepsFullPaths(t *testing.T) {
	root := t.TempDir()
	cwdLine := func(cwd, text string) string {
		return `{"type":"user","cwd":"` + cwd + `","timestamp":"2025-01-01T00:00:00Z","message":{"role":"user","content":"` + text + `"}}` + "\n"
	}
	writeFile(t, root, "-work-acme-api/a.jsonl", cwdLine("/work/acme/api", "one"))
	writeFile(t, root, "-home-me-acme-api/b.jsonl", cwdLine("/home/me/acme/api", "two"))

	s := NewScanner(Roots{Claude: root}, DiscoverOptions{})
	convs, _ := s.ScanAll()
	require.Len(t, convs, 2)
	assert.Equal(t, "acme/api", convs[0].ProjectName)
	assert.Equal(t, "acme/api", convs[1].ProjectName)
	assert.Equal(t, []string{"/home/me/acme/api", "/work/acme/api"}, s.GetProjects())
}

func TestGetConversation(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "-p-q/s.jsonl", userLine("2025-01-01T00:00:00Z", "hi"))

	s := NewScanner(Roots{Claude: root}, DiscoverOptions{})
	assert.Nil(t, s.GetConversation(path))
	assert.Empty(t, s.GetProjects())

	s.ScanAll()
	conv := s.GetConversation(path)
	require.NotNil(t, conv)
	assert.Equal(t, path, conv.ID)
	assert.Nil(t, s.GetConversation("unknown"))
	assert.Len(t, s.Conversations(), 1)
}

func TestScanAllReplacesState(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "-p-q/s.jsonl", userLine("2025-01-01T00:00:00Z", "hi"))

	s := NewScanner(Roots{Claude: root}, DiscoverOptions{})
	s.ScanAll()
	require.NotNil(t, s.GetConversation(path))

	require.NoError(t, os.Remove(path))
	convs, _ := s.ScanAll()
	assert.Empty(t, convs)
	assert.Nil(t, s.GetConversation(path))
}

func TestScanAllCodex(t *testing.T) {
	codex := t.TempDir()
	writeFile(t, codex, "2025/01/01/rollout.jsonl",
		`{"timestamp":"2025-01-01T00:00:00Z","type":"session_meta","payload":{"id":"s1","cwd":"/x/y"}}`+"\n"+
			`{"timestamp":"2025-01-01T00:00:01Z","type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"hey"}]}}`+"\n")

	s := NewScanner(Roots{Codex: codex}, DiscoverOptions{})
	convs, _ := s.ScanAll()
	require.Len(t, convs, 1)
	assert.Equal(t, "codex", convs[0].Source)
	assert.Equal(t, "x/y", convs[0].ProjectName)
}
