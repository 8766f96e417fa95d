package main

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/config"
	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/service"
)

var version = "dev"

func init() {
	logger.Configure(logger.Flags{LogToStderr: true, Color: true})
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "chatlog",
		Short:        "Browse and search Claude Code and Codex conversation transcripts",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadService reads the config and builds the first generation.
func loadService() (*service.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	svc := service.New(cfg.Roots(), cfg.DiscoverOptions())
	if _, err := svc.Rebuild(); err != nil {
		svc.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

// withConversation builds the index, resolves key and hands the
// conversation to fn.
func withConversation(key string, fn func(*parse.Conversation) error) error {
	svc, _, err := loadService()
	if err != nil {
		return err
	}
	defer svc.Close()

	conv, err := svc.Lookup(key)
	if err != nil {
		return err
	}
	return fn(conv)
}
