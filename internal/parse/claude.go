package parse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const maxLineSize = 64 * 1024 * 1024 // 64MB

type claudeRecord struct {
	Type          string          `json:"type"`
	IsMeta        bool            `json:"isMeta"`
	Timestamp     string          `json:"timestamp"`
	GitBranch     string          `json:"gitBranch"`
	Version       string          `json:"version"`
	Message       json.RawMessage `json:"message"`
	ToolUseResult json.RawMessage `json:"toolUseResult"`
}

type claudeMessage struct {
	Role       string          `json:"role"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Content    json.RawMessage `json:"content"`
	Usage      *claudeUsage    `json:"usage"`
}

type claudeUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

// envelope holds the fields read from every line, message or not.
var envelopePaths = []string{"type", "timestamp", "cwd", "sessionId", "slug", "isMeta", "summary"}

// accumulator folds the per-line values that span the whole file.
type accumulator struct {
	cwd         string
	sessionID   string
	sessionName string
	summary     string
	maxTS       string
	messages    []Message
	text        strings.Builder
}

func firstWins(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (a *accumulator) observeTimestamp(ts string) {
	if ts > a.maxTS {
		a.maxTS = ts
	}
}

func (a *accumulator) add(m Message) {
	a.messages = append(a.messages, m)
	if m.Content == "" {
		return
	}
	if a.text.Len() > 0 {
		a.text.WriteByte('\n')
	}
	a.text.WriteString(m.Content)
}

// ParseClaude streams a Claude Code transcript into a Conversation. It
// returns nil, nil when the file holds no eligible messages.
func ParseClaude(filePath string) (*Conversation, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var acc accumulator
	pending := make(map[string]ToolUseBlock)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			continue
		}

		env := gjson.GetManyBytes(line, envelopePaths...)
		recType := env[0].Str
		acc.observeTimestamp(env[1].Str)
		firstWins(&acc.cwd, env[2].Str)
		firstWins(&acc.sessionID, env[3].Str)
		firstWins(&acc.sessionName, env[4].Str)

		if recType == "summary" {
			firstWins(&acc.summary, env[6].Str)
			continue
		}
		if (recType != "user" && recType != "assistant") || env[5].Bool() {
			continue
		}

		var rec claudeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if msg, ok := claudeToMessage(rec, pending); ok {
			msg.LineNumber = lineNum
			acc.add(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	if len(acc.messages) == 0 {
		return nil, nil
	}

	projectPath := acc.cwd
	if projectPath == "" {
		projectPath = DecodeProjectDir(projectDirName(filePath))
	}
	sessionID := acc.sessionID
	if sessionID == "" {
		sessionID = SessionIDFromPath(filePath)
	}
	sessionName := acc.sessionName
	if sessionName == "" {
		sessionName = acc.summary
	}

	return &Conversation{
		ID:           filePath,
		FilePath:     filePath,
		Source:       SourceClaude,
		ProjectPath:  projectPath,
		ProjectName:  ProjectName(projectPath),
		SessionID:    sessionID,
		SessionName:  sessionName,
		Messages:     acc.messages,
		FullText:     acc.text.String(),
		Timestamp:    acc.maxTS,
		MessageCount: len(acc.messages),
	}, nil
}

func claudeToMessage(rec claudeRecord, pending map[string]ToolUseBlock) (Message, bool) {
	var msg claudeMessage
	if err := json.Unmarshal(rec.Message, &msg); err != nil {
		return Message{}, false
	}

	content := extractClaudeContent(msg.Content)

	meta := Metadata{
		Model:      msg.Model,
		StopReason: msg.StopReason,
		GitBranch:  rec.GitBranch,
		Version:    rec.Version,
	}
	if msg.Usage != nil {
		meta.Usage = &Usage{
			InputTokens:         msg.Usage.InputTokens,
			OutputTokens:        msg.Usage.OutputTokens,
			CacheReadTokens:     msg.Usage.CacheReadInputTokens,
			CacheCreationTokens: msg.Usage.CacheCreationInputTokens,
		}
	}
	for _, item := range content.Items {
		if item.Type != "tool_use" || item.ID == "" {
			continue
		}
		block := ToolUseBlock{ID: item.ID, Name: item.Name, Input: item.Input}
		pending[item.ID] = block
		meta.ToolUses = append(meta.ToolUses, block)
		if item.Name != "" {
			meta.ToolNames = append(meta.ToolNames, item.Name)
		}
	}
	meta.ToolNames = lo.Uniq(meta.ToolNames)

	if len(rec.ToolUseResult) > 0 {
		var raw any
		if err := json.Unmarshal(rec.ToolUseResult, &raw); err == nil {
			if r := Classify(raw, content.Items, pending); r != nil {
				meta.ToolResults = append(meta.ToolResults, r)
			}
		}
	}

	if content.Text == "" && !content.ToolResultOnly {
		return Message{}, false
	}

	return Message{
		Type:         MessageType(rec.Type),
		Content:      content.Text,
		Timestamp:    rec.Timestamp,
		IsToolResult: content.ToolResultOnly,
		Metadata:     buildMetadata(meta),
	}, true
}

type extractedContent struct {
	Text           string
	Items          []ContentItem
	ToolResultOnly bool
}

func extractClaudeContent(raw json.RawMessage) extractedContent {
	// try string first
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extractedContent{Text: Normalize(s)}
	}

	// try array of content blocks
	var items []ContentItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return extractedContent{}
	}

	var parts []string
	toolResultOnly := len(items) > 0
	for _, it := range items {
		if it.Type != "tool_result" {
			toolResultOnly = false
		}
		switch it.Type {
		case "text":
			if t := Normalize(it.Text); t != "" {
				parts = append(parts, t)
			}
		case "tool_result":
			var body string
			if err := json.Unmarshal(it.Content, &body); err == nil {
				if t := Normalize(body); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}
	return extractedContent{
		Text:           strings.Join(parts, " "),
		Items:          items,
		ToolResultOnly: toolResultOnly,
	}
}

// DecodeProjectDir reverses the directory-name encoding of a project path,
// where every path separator was replaced by '-'.
func DecodeProjectDir(name string) string {
	if name == "" {
		return ""
	}
	return strings.ReplaceAll(name, "-", "/")
}

// projectDirName returns the project directory holding a transcript,
// stepping over a session-id subdirectory when present.
func projectDirName(filePath string) string {
	dir := filepath.Dir(filePath)
	if _, err := uuid.Parse(filepath.Base(dir)); err == nil {
		dir = filepath.Dir(dir)
	}
	return filepath.Base(dir)
}

// ProjectName shortens a project path to its last two segments.
func ProjectName(projectPath string) string {
	parts := lo.Filter(strings.Split(filepath.ToSlash(projectPath), "/"), func(p string, _ int) bool {
		return p != ""
	})
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, "/")
}

// uuidRe matches a standard UUID (8-4-4-4-12 hex pattern).
var uuidRe = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// SessionIDFromPath derives a session id from a transcript file name.
func SessionIDFromPath(filePath string) string {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if u, err := uuid.Parse(stem); err == nil {
		return u.String()
	}
	if m := uuidRe.FindAllString(stem, -1); len(m) > 0 {
		return strings.ToLower(m[len(m)-1])
	}
	return stem
}
