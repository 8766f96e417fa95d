package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

// ResumeCommand builds the shell command that resumes conv in its tool.
func ResumeCommand(conv *parse.Conversation) string {
	id := conv.SessionID
	if _, err := uuid.Parse(id); err != nil {
		// codex file names carry a timestamp before the uuid
		id = parse.SessionIDFromPath(conv.FilePath)
	}

	var resumeCmd string
	switch conv.Source {
	case parse.SourceClaude:
		resumeCmd = "claude --resume " + id
	case parse.SourceCodex:
		resumeCmd = "codex resume " + id
	default:
		resumeCmd = id
	}

	if conv.ProjectPath != "" {
		return fmt.Sprintf("cd %s && %s", shellQuote(conv.ProjectPath), resumeCmd)
	}
	return resumeCmd
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"$`\\!*?&;|<>()[]{}#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// copyResumeCommand copies the resume command to the clipboard, printing it
// instead when no clipboard is available.
func copyResumeCommand(conv *parse.Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation not found")
	}
	cmd := ResumeCommand(conv)
	if err := clipboard.WriteAll(cmd); err != nil {
		fmt.Printf("%s\n", cmd)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", cmd)
	return nil
}
