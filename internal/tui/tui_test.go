package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/scan"
	"github.com/Zuo-Peng/chatlog/internal/search"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

func TestResumeCommand(t *testing.T) {
	tests := []struct {
		name string
		conv parse.Conversation
		want string
	}{
		{
			name: "claude",
			conv: parse.Conversation{
				Source:      parse.SourceClaude,
				SessionID:   "5f0c7d4e-1111-4a2b-9c3d-0123456789ab",
				ProjectPath: "/home/dev/app",
			},
			want: "cd /home/dev/app && claude --resume 5f0c7d4e-1111-4a2b-9c3d-0123456789ab",
		},
		{
			name: "codex id taken from file name",
			conv: parse.Conversation{
				Source:    parse.SourceCodex,
				SessionID: "not-a-uuid",
				FilePath:  "/s/rollout-2025-01-26T17-30-22-019bf9a3-d433-7fc1-8214-b82613804964.jsonl",
			},
			want: "codex resume 019bf9a3-d433-7fc1-8214-b82613804964",
		},
		{
			name: "path with spaces is quoted",
			conv: parse.Conversation{
				Source:      parse.SourceClaude,
				SessionID:   "5f0c7d4e-1111-4a2b-9c3d-0123456789ab",
				ProjectPath: "/home/dev/my app",
			},
			want: "cd '/home/dev/my app' && claude --resume 5f0c7d4e-1111-4a2b-9c3d-0123456789ab",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResumeCommand(&tt.conv))
		})
	}
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "/a/b", shellQuote("/a/b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}

func testService(t *testing.T) *service.Service {
	t.Helper()
	root := t.TempDir()
	sessions := []struct{ name, ts, text string }{
		{"a", "2025-01-01T00:00:01Z", "deploy the api"},
		{"b", "2025-01-01T00:00:02Z", "write docs"},
	}
	for _, s := range sessions {
		path := filepath.Join(root, "-w-proj", s.name+".jsonl")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		line := `{"type":"user","timestamp":"` + s.ts + `","message":{"role":"user","content":"` + s.text + `"}}` + "\n"
		require.NoError(t, os.WriteFile(path, []byte(line), 0o644))
	}
	svc := service.New(scan.Roots{Claude: root}, scan.DiscoverOptions{})
	t.Cleanup(func() { svc.Close() })
	_, err := svc.Rebuild()
	require.NoError(t, err)
	return svc
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestSearchModeIgnoresBlankQuery(t *testing.T) {
	m := newModel(testService(t), modeSearch, Options{Limit: 10})
	msg := m.doSearch("")()
	assert.Empty(t, msg.(searchResultMsg).results)

	msg = m.doSearch("deploy")()
	require.Len(t, msg.(searchResultMsg).results, 1)
}

func TestListModeShowsRecent(t *testing.T) {
	m := newModel(testService(t), modeList, Options{Limit: 10})
	res := m.doSearch("")().(searchResultMsg)
	require.Len(t, res.results, 2)
	assert.True(t, strings.HasSuffix(res.results[0].ID, "b.jsonl"))
}

func TestUpdateAppliesCurrentResultsOnly(t *testing.T) {
	m := newModel(testService(t), modeSearch, Options{Query: "deploy", Limit: 10})

	m, _ = update(t, m, searchResultMsg{query: "stale", results: []search.Result{{ID: "x"}}})
	assert.Empty(t, m.results)

	m, cmd := update(t, m, searchResultMsg{query: "deploy", results: []search.Result{{ID: "x"}, {ID: "y"}}})
	assert.Len(t, m.results, 2)
	assert.NotNil(t, cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.openResult)
	assert.Equal(t, "y", m.openResult.ID)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestUpdateRebuild(t *testing.T) {
	m := newModel(testService(t), modeList, Options{Limit: 10})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.rebuilding)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	m, cmd = update(t, m, generationReadyMsg{stats: service.RebuildStats{}})
	assert.False(t, m.rebuilding)
	assert.Contains(t, m.status, "index rebuilt")
	require.NotNil(t, cmd)
	res, ok := cmd().(searchResultMsg)
	require.True(t, ok)
	assert.Len(t, res.results, 2)
}

func TestPreviewRendersConversation(t *testing.T) {
	svc := testService(t)
	results := svc.Search("deploy", 10, "")
	require.Len(t, results, 1)

	msg := loadPreviewCmd(svc, results[0], "deploy", 60)().(previewRenderedMsg)
	assert.Contains(t, msg.content, "the api")
	assert.Greater(t, msg.hitLine, 0)

	missing := loadPreviewCmd(svc, search.Result{ID: "gone"}, "", 60)().(previewRenderedMsg)
	assert.Contains(t, missing.content, "no longer available")
}

func TestFormatResultLine(t *testing.T) {
	lines := formatResultLine(search.Result{
		Source:      parse.SourceClaude,
		Timestamp:   "2025-03-04T10:00:00Z",
		ProjectName: "w/proj",
		SessionName: "fix-login",
		Preview:     "line one\nline two",
	}, 80, true)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "03-04")
	assert.Contains(t, lines[0], "fix-login")
	assert.Contains(t, lines[1], "line one line two")
}

func TestUpdateRebuildFailed(t *testing.T) {
	m := newModel(testService(t), modeList, Options{Limit: 10})
	m.rebuilding = true

	m, cmd := update(t, m, rebuildFailedMsg{err: errors.New("disk gone")})
	assert.Nil(t, cmd)
	assert.False(t, m.rebuilding)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusBar(), "rebuild failed: disk gone")
}

func TestStatusBarHelp(t *testing.T) {
	m := newModel(testService(t), modeSearch, Options{Limit: 10})
	bar := m.statusBar()
	assert.Contains(t, bar, "C-r rebuild")
	assert.Contains(t, bar, "Enter copy resume cmd")
	assert.Contains(t, bar, "Esc quit")
}
