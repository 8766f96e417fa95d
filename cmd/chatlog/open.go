package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/open"
	"github.com/Zuo-Peng/chatlog/internal/parse"
)

func openCmd() *cobra.Command {
	var query string
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open the transcript JSONL file in $EDITOR at the matching line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(args[0], func(conv *parse.Conversation) error {
				if printOnly {
					fmt.Println(fileLocation(conv, query))
					return nil
				}
				return open.OpenConversation(conv, query)
			})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Jump to the first message matching this query")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print path:line instead of launching the editor")

	return cmd
}

func fileLocation(conv *parse.Conversation, query string) string {
	return fmt.Sprintf("%s:%d", conv.FilePath, open.HitLine(conv, query))
}
