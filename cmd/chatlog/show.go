package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/render"
)

func showCmd() *cobra.Command {
	var context int
	var query string
	var width int
	var metadata bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a conversation, optionally around the first query match",
		Long:  `Render a conversation. <id> is the transcript path, the session id, or a unique session id prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(args[0], func(conv *parse.Conversation) error {
				out, _ := render.RenderConversation(conv, render.Options{
					Context:  context,
					Width:    width,
					Query:    query,
					Metadata: metadata,
				})
				fmt.Print(out)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&context, "context", -1, "Messages before/after the match to show (-1 = all)")
	cmd.Flags().StringVar(&query, "query", "", "Highlight and center on this query")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "Show model, token usage and tool results")

	return cmd
}
