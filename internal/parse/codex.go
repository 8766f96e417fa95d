package parse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Top-level record in Codex JSONL
type codexRecord struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// session_meta payload
type codexSessionMeta struct {
	ID         string `json:"id"`
	Cwd        string `json:"cwd"`
	CliVersion string `json:"cli_version"`
	Git        *struct {
		Branch string `json:"branch"`
	} `json:"git"`
}

// event_msg payload
type codexEventPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// response_item payload
type codexResponsePayload struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
	Output    string `json:"output"`
	Content   []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type codexUserTurn struct {
	text      string
	fromEvent bool
}

var codexShellTools = map[string]bool{
	"shell":        true,
	"exec_command": true,
	"local_shell":  true,
}

// ParseCodex streams a Codex rollout file into a Conversation, following the
// same first-wins and running-maximum rules as ParseClaude.
func ParseCodex(filePath string) (*Conversation, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		acc       accumulator
		gitBranch string
		version   string
		pending   = make(map[string]ToolUseBlock)
		lineNum   = 0
		lastUser  codexUserTurn
	)

	// Newer rollouts record each user turn twice, as a response_item and
	// as an event_msg; only the first copy is kept.
	addUser := func(text, ts string, fromEvent bool) {
		if lastUser.text == text && lastUser.fromEvent != fromEvent {
			lastUser = codexUserTurn{}
			return
		}
		lastUser = codexUserTurn{text: text, fromEvent: fromEvent}
		acc.add(Message{
			Type:       MessageUser,
			Content:    text,
			Timestamp:  ts,
			LineNumber: lineNum,
			Metadata:   buildMetadata(Metadata{GitBranch: gitBranch, Version: version}),
		})
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var rec codexRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		acc.observeTimestamp(rec.Timestamp)

		switch rec.Type {
		case "session_meta":
			var meta codexSessionMeta
			if err := json.Unmarshal(rec.Payload, &meta); err != nil {
				continue
			}
			firstWins(&acc.cwd, meta.Cwd)
			firstWins(&acc.sessionID, meta.ID)
			firstWins(&version, meta.CliVersion)
			if meta.Git != nil {
				firstWins(&gitBranch, meta.Git.Branch)
			}

		case "event_msg":
			var evt codexEventPayload
			if err := json.Unmarshal(rec.Payload, &evt); err != nil || evt.Type != "user_message" {
				continue
			}
			if text := Normalize(evt.Message); text != "" {
				addUser(text, rec.Timestamp, true)
			}

		case "response_item":
			var item codexResponsePayload
			if err := json.Unmarshal(rec.Payload, &item); err != nil {
				continue
			}

			switch item.Type {
			case "message":
				if item.Role != "user" && item.Role != "assistant" {
					continue
				}
				var parts []string
				for _, c := range item.Content {
					if c.Type != "input_text" && c.Type != "output_text" && c.Type != "text" {
						continue
					}
					if t := Normalize(c.Text); t != "" {
						parts = append(parts, t)
					}
				}
				text := strings.Join(parts, " ")
				if text == "" {
					continue
				}
				if item.Role == "user" {
					addUser(text, rec.Timestamp, false)
					continue
				}
				acc.add(Message{
					Type:       MessageType(item.Role),
					Content:    text,
					Timestamp:  rec.Timestamp,
					LineNumber: lineNum,
					Metadata:   buildMetadata(Metadata{GitBranch: gitBranch, Version: version}),
				})

			case "function_call":
				block := ToolUseBlock{ID: item.CallID, Name: item.Name}
				var input map[string]any
				if json.Unmarshal([]byte(item.Arguments), &input) == nil {
					block.Input = input
				}
				pending[item.CallID] = block

			case "function_call_output":
				block, ok := pending[item.CallID]
				if !ok {
					block = ToolUseBlock{ID: item.CallID, Name: "unknown"}
				}
				output := extractCommandOutput(item.Output)
				var result ToolResult
				if codexShellTools[block.Name] {
					result = BashResult{Type: ResultBash, Stdout: output}
				} else {
					result = GenericResult{Type: ResultGeneric, ToolName: block.Name, Raw: map[string]any{"output": output}}
				}
				acc.add(Message{
					Type:         MessageUser,
					Content:      Normalize(output),
					Timestamp:    rec.Timestamp,
					LineNumber:   lineNum,
					IsToolResult: true,
					Metadata: buildMetadata(Metadata{
						GitBranch:   gitBranch,
						Version:     version,
						ToolNames:   []string{block.Name},
						ToolUses:    []ToolUseBlock{block},
						ToolResults: []ToolResult{result},
					}),
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	if len(acc.messages) == 0 {
		return nil, nil
	}

	sessionID := acc.sessionID
	if sessionID == "" {
		sessionID = SessionIDFromPath(filePath)
	}

	return &Conversation{
		ID:           filePath,
		FilePath:     filePath,
		Source:       SourceCodex,
		ProjectPath:  acc.cwd,
		ProjectName:  ProjectName(acc.cwd),
		SessionID:    sessionID,
		Messages:     acc.messages,
		FullText:     acc.text.String(),
		Timestamp:    acc.maxTS,
		MessageCount: len(acc.messages),
	}, nil
}

// extractCommandOutput unwraps the shell tool's output envelope, which is
// either a JSON object with an "output" field or "Exit code: N\nOutput:\n...".
func extractCommandOutput(raw string) string {
	var wrapped struct {
		Output string `json:"output"`
	}
	if json.Unmarshal([]byte(raw), &wrapped) == nil && wrapped.Output != "" {
		return wrapped.Output
	}
	if idx := strings.Index(raw, "Output:\n"); idx >= 0 {
		return raw[idx+len("Output:\n"):]
	}
	return raw
}
