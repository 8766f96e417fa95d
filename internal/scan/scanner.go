package scan

import (
	"os"
	"sort"
	"sync/atomic"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

type Stats struct {
	Discovered int
	Parsed     int
	Empty      int // zero-byte files and files without messages
	Dropped    int // files removed between discovery and parsing
	Errors     int
}

// Snapshot is the outcome of one scan. Its conversations are sorted by
// timestamp descending, ties by id.
type Snapshot struct {
	Conversations []*parse.Conversation
	byID          map[string]*parse.Conversation
	projects      []string
}

type Scanner struct {
	roots Roots
	opts  DiscoverOptions
	state atomic.Pointer[Snapshot]
}

func NewScanner(roots Roots, opts DiscoverOptions) *Scanner {
	return &Scanner{roots: roots, opts: opts}
}

// ScanAll rescans every root and publishes the result. The previous state
// stays visible until the new one is complete.
func (s *Scanner) ScanAll() ([]*parse.Conversation, Stats) {
	snap, stats := s.Collect()
	s.Publish(snap)
	return snap.Conversations, stats
}

// Publish makes snap the state served by GetConversation and GetProjects.
func (s *Scanner) Publish(snap *Snapshot) {
	s.state.Store(snap)
}

// Collect rescans every root without publishing the result. Per-file
// failures are logged and counted and never abort the scan.
func (s *Scanner) Collect() (*Snapshot, Stats) {
	var stats Stats

	// unreadable roots are already logged; the rest still get scanned
	files, _ := Discover(s.roots, s.opts)
	stats.Discovered = len(files)

	convs := make([]*parse.Conversation, 0, len(files))
	for _, f := range files {
		if f.Size == 0 {
			stats.Empty++
			continue
		}
		if _, err := os.Stat(f.Path); os.IsNotExist(err) {
			stats.Dropped++
			continue
		}
		conv, err := parseFile(f)
		if err != nil {
			logger.Warnf("parse %s: %v", f.Path, err)
			stats.Errors++
			continue
		}
		if conv == nil {
			stats.Empty++
			continue
		}
		convs = append(convs, conv)
	}
	stats.Parsed = len(convs)

	sort.Slice(convs, func(i, j int) bool {
		if convs[i].Timestamp != convs[j].Timestamp {
			return convs[i].Timestamp > convs[j].Timestamp
		}
		return convs[i].ID < convs[j].ID
	})

	next := &Snapshot{Conversations: convs, byID: make(map[string]*parse.Conversation, len(convs))}
	for _, c := range convs {
		next.byID[c.ID] = c
	}
	projects := lo.Uniq(lo.FilterMap(convs, func(c *parse.Conversation, _ int) (string, bool) {
		return c.ProjectPath, c.ProjectPath != ""
	}))
	sort.Strings(projects)
	next.projects = projects

	logger.Debugf("scanned %d files: %d conversations, %d empty, %d errors",
		stats.Discovered, stats.Parsed, stats.Empty, stats.Errors)
	return next, stats
}

func parseFile(f FileInfo) (*parse.Conversation, error) {
	if f.Source == parse.SourceCodex {
		return parse.ParseCodex(f.Path)
	}
	return parse.ParseClaude(f.Path)
}

// GetConversation returns nil when id is unknown or no scan has completed.
func (s *Scanner) GetConversation(id string) *parse.Conversation {
	snap := s.state.Load()
	if snap == nil {
		return nil
	}
	return snap.byID[id]
}

// GetProjects returns the sorted distinct project paths of the last scan.
func (s *Scanner) GetProjects() []string {
	snap := s.state.Load()
	if snap == nil {
		return []string{}
	}
	out := make([]string, len(snap.projects))
	copy(out, snap.projects)
	return out
}

// Conversations returns the cached conversations in no particular order.
func (s *Scanner) Conversations() []*parse.Conversation {
	snap := s.state.Load()
	if snap == nil {
		return nil
	}
	return lo.Values(snap.byID)
}
