package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/config"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan transcript roots, build the index and print counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Scanning roots...\n")
			fmt.Fprintf(os.Stderr, "  Claude: %s\n", cfg.ClaudeRoot)
			fmt.Fprintf(os.Stderr, "  Codex:  %s\n", cfg.CodexRoot)

			svc := service.New(cfg.Roots(), cfg.DiscoverOptions())
			defer svc.Close()

			stats, err := svc.Rebuild()
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			s := svc.GetStats()
			fmt.Printf("conversations\t%d\nprojects\t%d\ndocuments\t%d\n",
				s.ConversationCount, s.ProjectCount, s.DocumentCount)
			return nil
		},
	}
}
