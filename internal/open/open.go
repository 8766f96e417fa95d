package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatlog/internal/parse"
	"github.com/Zuo-Peng/chatlog/internal/render"
)

// OpenConversation opens the transcript behind conv in $EDITOR, positioned
// on the first message matching query.
func OpenConversation(conv *parse.Conversation, query string) error {
	if conv == nil {
		return fmt.Errorf("conversation not found")
	}

	filePath := conv.FilePath
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return openInEditor(editor, filePath, HitLine(conv, query))
}

// HitLine is the 1-based transcript line of the message matching query.
func HitLine(conv *parse.Conversation, query string) int {
	if i := render.HitIndex(conv, query); i >= 0 && conv.Messages[i].LineNumber > 0 {
		return conv.Messages[i].LineNumber
	}
	return 1
}

func editorArgs(editor, filePath string, lineNum int) []string {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return []string{fmt.Sprintf("+%d", lineNum), filePath}
	case strings.Contains(editor, "code"):
		return []string{"--goto", filePath + ":" + strconv.Itoa(lineNum)}
	case strings.Contains(editor, "less"):
		return []string{"+" + strconv.Itoa(lineNum), filePath}
	default:
		return []string{filePath}
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := exec.Command(editor, editorArgs(editor, filePath, lineNum)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
