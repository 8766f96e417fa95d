package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the distinct projects found in the transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			defer svc.Close()

			for _, p := range svc.GetProjects() {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print conversation, project and index document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := loadService()
			if err != nil {
				return err
			}
			defer svc.Close()

			s := svc.GetStats()
			fmt.Printf("Conversations: %d\n", s.ConversationCount)
			fmt.Printf("Projects:      %d\n", s.ProjectCount)
			fmt.Printf("Documents:     %d\n", s.DocumentCount)
			return nil
		},
	}
}
