package parse

import "encoding/json"

type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
	MessageSystem    MessageType = "system"
)

const (
	SourceClaude = "claude"
	SourceCodex  = "codex"
)

// Conversation is the normalized form of one transcript file.
type Conversation struct {
	ID           string    `json:"id"`
	FilePath     string    `json:"filePath"`
	Source       string    `json:"source"`
	ProjectPath  string    `json:"projectPath"`
	ProjectName  string    `json:"projectName"`
	SessionID    string    `json:"sessionId"`
	SessionName  string    `json:"sessionName,omitempty"`
	Messages     []Message `json:"messages"`
	FullText     string    `json:"-"`
	Timestamp    string    `json:"timestamp"`
	MessageCount int       `json:"messageCount"`
}

type Message struct {
	Type         MessageType `json:"type"`
	Content      string      `json:"content"`
	Timestamp    string      `json:"timestamp"`
	LineNumber   int         `json:"lineNumber,omitempty"`
	IsToolResult bool        `json:"isToolResult,omitempty"`
	Metadata     *Metadata   `json:"metadata,omitempty"`
}

// Metadata is only attached to a message when at least one field is set;
// see buildMetadata.
type Metadata struct {
	Model       string         `json:"model,omitempty"`
	StopReason  string         `json:"stopReason,omitempty"`
	Usage       *Usage         `json:"usage,omitempty"`
	GitBranch   string         `json:"gitBranch,omitempty"`
	Version     string         `json:"version,omitempty"`
	ToolNames   []string       `json:"toolNames,omitempty"`
	ToolUses    []ToolUseBlock `json:"toolUses,omitempty"`
	ToolResults []ToolResult   `json:"toolResults,omitempty"`
}

type Usage struct {
	InputTokens         int64 `json:"inputTokens,omitempty"`
	OutputTokens        int64 `json:"outputTokens,omitempty"`
	CacheReadTokens     int64 `json:"cacheReadTokens,omitempty"`
	CacheCreationTokens int64 `json:"cacheCreationTokens,omitempty"`
}

func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 && u.CacheReadTokens == 0 && u.CacheCreationTokens == 0
}

// ToolUseBlock is a tool invocation issued by the assistant. ID correlates
// it with the tool_result that answers it.
type ToolUseBlock struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input,omitempty"`
}

// ContentItem is one element of an array-valued message content.
type ContentItem struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

func buildMetadata(m Metadata) *Metadata {
	if m.Usage != nil && m.Usage.IsZero() {
		m.Usage = nil
	}
	if m.Model == "" && m.StopReason == "" && m.Usage == nil && m.GitBranch == "" && m.Version == "" &&
		len(m.ToolNames) == 0 && len(m.ToolUses) == 0 && len(m.ToolResults) == 0 {
		return nil
	}
	return &m
}
