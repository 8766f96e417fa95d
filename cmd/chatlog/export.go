package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a normalized conversation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConversation(args[0], func(conv *parse.Conversation) error {
				return writeJSON(conv, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

// writeJSON encodes conv to output, or stdout when output is empty or "-".
func writeJSON(conv *parse.Conversation, output string) error {

	toFile := output != "" && output != "-"
	var w io.Writer = os.Stdout
	if toFile {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(conv); err != nil {
		return fmt.Errorf("encode %s: %w", conv.ID, err)
	}
	if toFile {
		fmt.Fprintf(os.Stderr, "Wrote %d messages to %s\n", conv.MessageCount, output)
	}
	return nil
}
