package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatlog/internal/tui"
)

func listCmd() *cobra.Command {
	var project string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse sessions, most recent first",
		Long:  `Opens the interactive UI listing the most recent sessions. Type to search their content.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := loadService()
			if err != nil {
				return err
			}
			defer svc.Close()

			if limit <= 0 {
				limit = cfg.SearchLimit
			}

			if !term.IsTerminal(int(os.Stdout.Fd())) {
				printResults(svc.Search("", limit, project), "")
				return nil
			}
			return tui.RunList(svc, tui.Options{Limit: limit, Project: project})
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only projects whose name contains this text")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max sessions (0 = search_limit from config)")

	return cmd
}
