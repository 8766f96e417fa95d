package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatlog/internal/search"
	"github.com/Zuo-Peng/chatlog/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSource(source string) string {
	switch source {
	case "claude":
		return sColorBlue + source + sColorReset
	case "codex":
		return sColorGreen + source + sColorReset
	default:
		return source
	}
}

// colorizePreview marks case-insensitive occurrences of each query term.
func colorizePreview(preview, query string) string {
	for _, term := range strings.Fields(query) {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
		preview = re.ReplaceAllStringFunc(preview, func(m string) string {
			return sColorBoldRed + m + sColorReset
		})
	}
	return preview
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}

func searchCmd() *cobra.Command {
	var project string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across conversations",
		Long: `Search conversations. On a terminal this opens the interactive UI;
when piped the output is TSV for fzf integration:
  id, timestamp, source, project, session name, preview

Example shell function:
  clf() {
    chatlog search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=2.. \
      --preview 'chatlog show {1} --query {q}' \
      --preview-window=right:60%:wrap \
      --bind 'enter:execute(chatlog open {1} --query {q})'
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := loadService()
			if err != nil {
				return err
			}
			defer svc.Close()

			if limit <= 0 {
				limit = cfg.SearchLimit
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(svc, tui.Options{Query: args[0], Limit: limit, Project: project})
			}

			results := svc.Search(args[0], limit, project)
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			printResults(results, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only projects whose name contains this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = search_limit from config)")

	return cmd
}

func printResults(results []search.Result, query string) {
	for _, r := range results {
		// the id stays plain for fzf {1}
		fmt.Printf("%s\t%s%s%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			sColorDim, r.Timestamp, sColorReset,
			colorizeSource(r.Source),
			tsvField(r.ProjectName),
			tsvField(r.SessionName),
			colorizePreview(tsvField(r.Preview), query),
		)
	}
}
