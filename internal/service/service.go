// Package service ties the scanner and the search index together.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/Zuo-Peng/chatlog/internal/index"
	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/scan"
	"github.com/Zuo-Peng/chatlog/internal/search"
)

var (
	ErrRebuildInProgress = errors.New("rebuild already in progress")
	ErrNotFound          = errors.New("conversation not found")
)

type RebuildStats struct {
	Scan    scan.Stats
	Index   index.Stats
	Elapsed time.Duration
}

func (s RebuildStats) String() string {
	return fmt.Sprintf("files=%d conversations=%d empty=%d errors=%d %s",
		s.Scan.Discovered, s.Scan.Parsed, s.Scan.Empty, s.Scan.Errors, s.Index)
}

type Stats struct {
	ConversationCount int
	ProjectCount      int
	DocumentCount     int
}

type Service struct {
	scanner *scan.Scanner
	index   *index.Index
	build   func([]*parse.Conversation) (index.Stats, error)

	rebuilding atomic.Bool

	mu          sync.Mutex
	subscribers []func(RebuildStats)
}

func New(roots scan.Roots, opts scan.DiscoverOptions) *Service {
	s := &Service{
		scanner: scan.NewScanner(roots, opts),
		index:   index.New(),
	}
	s.build = s.index.Build
	return s
}

// Scan reads the conversations currently on disk. Neither the cache nor
// the index changes; use Rebuild for that.
func (s *Service) Scan() ([]*parse.Conversation, scan.Stats) {
	snap, stats := s.scanner.Collect()
	return snap.Conversations, stats
}

// Rebuild scans every root, builds a new index generation and notifies
// subscribers. Only one rebuild runs at a time. When the index build fails
// both the cache and the index keep serving the previous generation.
func (s *Service) Rebuild() (RebuildStats, error) {
	if !s.rebuilding.CompareAndSwap(false, true) {
		return RebuildStats{}, ErrRebuildInProgress
	}
	defer s.rebuilding.Store(false)

	start := time.Now()
	var stats RebuildStats

	snap, scanStats := s.scanner.Collect()
	stats.Scan = scanStats

	// the cache is only replaced once the matching index generation exists
	idxStats, err := s.build(snap.Conversations)
	if err != nil {
		return stats, fmt.Errorf("rebuild: %w", err)
	}
	s.scanner.Publish(snap)
	stats.Index = idxStats
	stats.Elapsed = time.Since(start)
	logger.Infof("rebuilt in %s: %s", stats.Elapsed.Round(time.Millisecond), stats)

	s.mu.Lock()
	subs := make([]func(RebuildStats), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(stats)
	}
	return stats, nil
}

// Rebuilding reports whether a rebuild is in flight.
func (s *Service) Rebuilding() bool {
	return s.rebuilding.Load()
}

// Subscribe registers fn to run after every successful rebuild.
func (s *Service) Subscribe(fn func(RebuildStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Service) GetConversation(id string) *parse.Conversation {
	return s.scanner.GetConversation(id)
}

// Lookup resolves a conversation by id, session id, or unique session id
// prefix.
func (s *Service) Lookup(key string) (*parse.Conversation, error) {
	if c := s.scanner.GetConversation(key); c != nil {
		return c, nil
	}
	var match *parse.Conversation
	for _, c := range s.scanner.Conversations() {
		if c.SessionID == key {
			return c, nil
		}
		if len(key) >= 4 && len(c.SessionID) > len(key) && c.SessionID[:len(key)] == key {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one session", key)
			}
			match = c
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return match, nil
}

func (s *Service) GetProjects() []string {
	return s.scanner.GetProjects()
}

func (s *Service) GetStats() Stats {
	return Stats{
		ConversationCount: len(s.scanner.Conversations()),
		ProjectCount:      len(s.scanner.GetProjects()),
		DocumentCount:     s.index.DocumentCount(),
	}
}

func (s *Service) Search(query string, limit int, project string) []search.Result {
	return search.Search(s.index, search.Options{Query: query, Limit: limit, Project: project})
}

// View exposes the current index generation for diagnostics.
func (s *Service) View(fn func(*sql.DB) error) error {
	return s.index.View(fn)
}

func (s *Service) Close() error {
	return s.index.Close()
}
