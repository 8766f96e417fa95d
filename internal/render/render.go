package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"

	"github.com/Zuo-Peng/chatlog/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorTool    = "\033[2;35m" // dim magenta for tool results
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	Context int    // messages before/after hit to show, <0 = all
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
	// Metadata adds model, token usage and tool result summaries.
	Metadata bool
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	terms := lo.Uniq(strings.Fields(query))
	if len(terms) == 0 {
		return text
	}
	for _, term := range terms {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			end := pos + len(term)
			if end > len(text) {
				break
			}
			replacement := colorBoldRed + text[pos:end] + colorReset
			text = text[:pos] + replacement + text[end:]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// HitIndex returns the index of the first message containing the whole
// query, or failing that any of its terms, case-insensitively. It is -1
// when nothing matches.
func HitIndex(conv *parse.Conversation, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if conv == nil || q == "" {
		return -1
	}
	for i, m := range conv.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return i
		}
	}
	terms := strings.Fields(q)
	for i, m := range conv.Messages {
		lower := strings.ToLower(m.Content)
		if lo.SomeBy(terms, func(t string) bool { return strings.Contains(lower, t) }) {
			return i
		}
	}
	return -1
}

func roleLabel(m parse.Message) (string, string) {
	switch {
	case m.IsToolResult:
		return colorTool, "TOOL"
	case m.Type == parse.MessageUser:
		return colorUser, "USER"
	case m.Type == parse.MessageAssistant:
		return colorAssist, "ASST"
	default:
		return colorDim, strings.ToUpper(string(m.Type))
	}
}

// RenderConversation renders conv and returns the content and the 0-based
// line of the hit message header (-1 if no hit).
func RenderConversation(conv *parse.Conversation, opts Options) (string, int) {
	if conv == nil || len(conv.Messages) == 0 {
		return "(empty session)", -1
	}
	if opts.Context == 0 {
		opts.Context = 10
	}

	hitIdx := HitIndex(conv, opts.Query)
	start, end := 0, len(conv.Messages)
	if hitIdx >= 0 && opts.Context > 0 {
		start = max(0, hitIdx-opts.Context)
		end = min(len(conv.Messages), hitIdx+opts.Context+1)
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + strings.Repeat("-", 50) + colorReset

	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s [%s] %s ---%s", colorDim, conv.SessionID, conv.Source, conv.ProjectPath, colorReset))
	if conv.SessionName != "" {
		writeLine(fmt.Sprintf("%s%s%s", colorDim, conv.SessionName, colorReset))
	}

	if start > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, start, colorReset))
	}

	for i := start; i < end; i++ {
		m := conv.Messages[i]
		if i > start {
			writeLine(separator)
		}

		color, label := roleLabel(m)
		if i == hitIdx {
			hitLine = lineCount
			writeLine(fmt.Sprintf("%s>> %s > %s <<%s", colorHit, label, m.Timestamp, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s >%s %s%s%s", color, label, colorReset, colorDim, m.Timestamp, colorReset))
		}

		if m.Content != "" {
			text := highlightKeywords(m.Content, opts.Query)
			if m.IsToolResult {
				text = colorDim + text + colorReset
			}
			for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
				writeLine(tl)
			}
		}
		for _, l := range metadataLines(m.Metadata, opts.Metadata) {
			writeLine("  " + colorDim + l + colorReset)
		}
		writeLine("")
	}

	if after := len(conv.Messages) - end; after > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, after, colorReset))
	}

	return b.String(), hitLine
}

func metadataLines(md *parse.Metadata, verbose bool) []string {
	if md == nil {
		return nil
	}
	var lines []string
	if len(md.ToolNames) > 0 {
		lines = append(lines, "tools: "+strings.Join(md.ToolNames, ", "))
	}
	if !verbose {
		return lines
	}
	for _, r := range md.ToolResults {
		lines = append(lines, "result: "+SummarizeResult(r))
	}
	if md.Model != "" {
		lines = append(lines, "model: "+md.Model)
	}
	if md.Usage != nil {
		lines = append(lines, fmt.Sprintf("tokens: in=%d out=%d cache_read=%d cache_create=%d",
			md.Usage.InputTokens, md.Usage.OutputTokens, md.Usage.CacheReadTokens, md.Usage.CacheCreationTokens))
	}
	return lines
}

// SummarizeResult describes a classified tool result in one line.
func SummarizeResult(r parse.ToolResult) string {
	switch v := r.(type) {
	case parse.EditResult:
		return fmt.Sprintf("edit %s (%d hunks)", v.FilePath, len(v.Hunks))
	case parse.WriteResult:
		return "write " + v.FilePath
	case parse.ReadResult:
		return "read " + v.FilePath
	case parse.BashResult:
		s := fmt.Sprintf("bash (%d stdout lines", countLines(v.Stdout))
		if v.Stderr != "" {
			s += fmt.Sprintf(", %d stderr lines", countLines(v.Stderr))
		}
		if v.Interrupted {
			s += ", interrupted"
		}
		return s + ")"
	case parse.GrepResult:
		return fmt.Sprintf("grep %s (%d files)", v.Mode, v.NumFiles)
	case parse.GlobResult:
		s := fmt.Sprintf("glob (%d files)", v.NumFiles)
		if v.Truncated {
			s += " truncated"
		}
		return s
	case parse.TaskAgentResult:
		return "agent " + v.Status
	case parse.TaskCreateResult:
		return fmt.Sprintf("task #%s created: %s", v.TaskID, v.Subject)
	case parse.TaskUpdateResult:
		s := fmt.Sprintf("task #%s updated", v.TaskID)
		if v.StatusChange != nil {
			s += fmt.Sprintf(": %s -> %s", v.StatusChange.From, v.StatusChange.To)
		}
		return s
	case parse.GenericResult:
		return v.ToolName
	default:
		return "unknown"
	}
}

func countLines(s string) int {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
