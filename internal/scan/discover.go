package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

const transcriptExt = ".jsonl"

// DefaultExcludedDirs hold auxiliary data next to the primary transcripts.
var DefaultExcludedDirs = []string{"subagents", "tool-results", "file-history", "shell-snapshots"}

type FileInfo struct {
	Path   string
	Source string // parse.SourceClaude or parse.SourceCodex
	Mtime  int64
	Size   int64
}

type Roots struct {
	Claude string
	Codex  string
}

type DiscoverOptions struct {
	ExcludedDirs []string
	// Exclude holds doublestar patterns matched against paths relative to
	// the root being walked.
	Exclude []string
}

// Discover lists transcript files under the configured roots. Missing roots
// and unreadable subtrees are skipped. A root that exists but cannot be
// read is logged and skipped too; its error is joined into the returned
// error while the files of the other roots are still returned.
func Discover(roots Roots, opts DiscoverOptions) ([]FileInfo, error) {
	var files []FileInfo
	var errs []error

	for _, r := range []struct{ root, source string }{
		{roots.Claude, parse.SourceClaude},
		{roots.Codex, parse.SourceCodex},
	} {
		if r.root == "" {
			continue
		}
		found, err := walkRoot(r.root, r.source, opts)
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("skipping %s root %s: %v", r.source, r.root, err)
			errs = append(errs, fmt.Errorf("%s root: %w", r.source, err))
			continue
		}
		files = append(files, found...)
	}

	return files, errors.Join(errs...)
}

func walkRoot(root, source string, opts DiscoverOptions) ([]FileInfo, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(DefaultExcludedDirs)+len(opts.ExcludedDirs))
	for _, d := range DefaultExcludedDirs {
		excluded[d] = true
	}
	for _, d := range opts.ExcludedDirs {
		excluded[d] = true
	}

	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		base := info.Name()
		if strings.HasPrefix(base, ".") || isExcludedPattern(root, path, opts.Exclude) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if excluded[base] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != transcriptExt {
			return nil
		}
		if strings.Contains(base, "sessions-index") {
			return nil
		}
		files = append(files, FileInfo{
			Path:   path,
			Source: source,
			Mtime:  info.ModTime().Unix(),
			Size:   info.Size(),
		})
		return nil
	})
	return files, err
}

func isExcludedPattern(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
