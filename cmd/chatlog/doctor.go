package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/config"
	"github.com/Zuo-Peng/chatlog/internal/index"
	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/scan"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, roots, parsing and FTS5",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			if cfg.Path == "" {
				fmt.Println("  File: (defaults)")
			} else {
				fmt.Printf("  File: %s\n", cfg.Path)
			}
			fmt.Printf("  Search limit: %d\n", cfg.SearchLimit)

			fmt.Println("\n=== Roots ===")
			checkDir("Claude", cfg.ClaudeRoot)
			checkDir("Codex", cfg.CodexRoot)

			fmt.Println("\n=== File Scan ===")
			files, err := scan.Discover(cfg.Roots(), cfg.DiscoverOptions())
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			}
			claudeCount := lo.CountBy(files, func(f scan.FileInfo) bool { return f.Source == parse.SourceClaude })
			fmt.Printf("  Claude JSONL files: %d\n", claudeCount)
			fmt.Printf("  Codex  JSONL files: %d\n", len(files)-claudeCount)

			svc := service.New(cfg.Roots(), cfg.DiscoverOptions())
			defer svc.Close()

			fmt.Println("\n=== Parse + Index ===")
			stats, err := svc.Rebuild()
			if err != nil {
				fmt.Printf("  Status: FAILED (%v)\n", err)
				return nil
			}
			fmt.Printf("  Conversations: %d\n", stats.Scan.Parsed)
			fmt.Printf("  Empty:         %d\n", stats.Scan.Empty)
			fmt.Printf("  Errors:        %d\n", stats.Scan.Errors)
			fmt.Printf("  Index:         %s\n", stats.Index)

			fmt.Println("\n=== FTS5 ===")
			var ftsRows int
			err = svc.View(func(db *sql.DB) error {
				return db.QueryRow("SELECT COUNT(*) FROM docs_fts").Scan(&ftsRows)
			})
			switch {
			case err == index.ErrNoIndex:
				fmt.Println("  Status: NOT BUILT")
			case err != nil:
				fmt.Printf("  FTS5 error: %v\n", err)
			case ftsRows == stats.Index.Rows:
				fmt.Printf("  FTS5 rows: %d\n  Status: OK\n", ftsRows)
			default:
				fmt.Printf("  Status: MISMATCH (built=%d, fts=%d)\n", stats.Index.Rows, ftsRows)
			}
			return nil
		},
	}
}

func checkDir(name, path string) {
	if path == "" {
		fmt.Printf("  %s: (disabled)\n", name)
	} else if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
