package parse

import "strconv"

type ResultType string

const (
	ResultEdit       ResultType = "edit"
	ResultBash       ResultType = "bash"
	ResultRead       ResultType = "read"
	ResultWrite      ResultType = "write"
	ResultGlob       ResultType = "glob"
	ResultGrep       ResultType = "grep"
	ResultTaskAgent  ResultType = "taskAgent"
	ResultTaskCreate ResultType = "taskCreate"
	ResultTaskUpdate ResultType = "taskUpdate"
	ResultGeneric    ResultType = "generic"
)

// ToolResult is one of the *Result variants below. The Type field on each
// variant mirrors ResultType() so the variant survives JSON export.
type ToolResult interface {
	ResultType() ResultType
}

type PatchHunk struct {
	OldStart int      `json:"oldStart"`
	OldLines int      `json:"oldLines"`
	NewStart int      `json:"newStart"`
	NewLines int      `json:"newLines"`
	Lines    []string `json:"lines"`
}

type EditResult struct {
	Type         ResultType  `json:"type"`
	FilePath     string      `json:"filePath"`
	OldString    string      `json:"oldString"`
	NewString    string      `json:"newString"`
	Hunks        []PatchHunk `json:"hunks"`
	UserModified bool        `json:"userModified,omitempty"`
	ReplaceAll   bool        `json:"replaceAll,omitempty"`
}

type BashResult struct {
	Type        ResultType `json:"type"`
	Stdout      string     `json:"stdout"`
	Stderr      string     `json:"stderr"`
	Interrupted bool       `json:"interrupted,omitempty"`
}

type ReadResult struct {
	Type     ResultType `json:"type"`
	FilePath string     `json:"filePath"`
}

type WriteResult struct {
	Type     ResultType `json:"type"`
	FilePath string     `json:"filePath"`
}

type GlobResult struct {
	Type      ResultType `json:"type"`
	Filenames []string   `json:"filenames"`
	NumFiles  int        `json:"numFiles"`
	Truncated bool       `json:"truncated,omitempty"`
}

type GrepResult struct {
	Type      ResultType `json:"type"`
	Mode      string     `json:"mode"`
	Filenames []string   `json:"filenames"`
	Content   string     `json:"content,omitempty"`
	NumFiles  int        `json:"numFiles"`
	NumLines  int        `json:"numLines"`
}

type TaskAgentResult struct {
	Type    ResultType `json:"type"`
	Status  string     `json:"status"`
	Prompt  string     `json:"prompt"`
	AgentID string     `json:"agentId"`
}

type TaskCreateResult struct {
	Type    ResultType `json:"type"`
	TaskID  string     `json:"taskId"`
	Subject string     `json:"subject"`
}

type StatusChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type TaskUpdateResult struct {
	Type          ResultType    `json:"type"`
	TaskID        string        `json:"taskId"`
	UpdatedFields []string      `json:"updatedFields"`
	StatusChange  *StatusChange `json:"statusChange,omitempty"`
}

type GenericResult struct {
	Type     ResultType     `json:"type"`
	ToolName string         `json:"toolName"`
	Raw      map[string]any `json:"raw"`
}

func (EditResult) ResultType() ResultType       { return ResultEdit }
func (BashResult) ResultType() ResultType       { return ResultBash }
func (ReadResult) ResultType() ResultType       { return ResultRead }
func (WriteResult) ResultType() ResultType      { return ResultWrite }
func (GlobResult) ResultType() ResultType       { return ResultGlob }
func (GrepResult) ResultType() ResultType       { return ResultGrep }
func (TaskAgentResult) ResultType() ResultType  { return ResultTaskAgent }
func (TaskCreateResult) ResultType() ResultType { return ResultTaskCreate }
func (TaskUpdateResult) ResultType() ResultType { return ResultTaskUpdate }
func (GenericResult) ResultType() ResultType    { return ResultGeneric }

type classifyInput struct {
	raw     map[string]any
	sibling []ContentItem
	pending map[string]ToolUseBlock
}

type classifyRule struct {
	name  ResultType
	match func(in classifyInput) bool
	build func(in classifyInput) ToolResult
}

// classifyRules is evaluated in order and the first match wins. Several
// shapes are subsets of others, so the order is part of the contract.
var classifyRules = []classifyRule{
	{
		name: ResultEdit,
		match: func(in classifyInput) bool {
			return has(in.raw, "structuredPatch") && has(in.raw, "oldString") && has(in.raw, "filePath")
		},
		build: buildEdit,
	},
	{
		name: ResultWrite,
		match: func(in classifyInput) bool {
			return str(in.raw, "type") == "create" && has(in.raw, "filePath")
		},
		build: func(in classifyInput) ToolResult {
			return WriteResult{Type: ResultWrite, FilePath: str(in.raw, "filePath")}
		},
	},
	{
		name: ResultRead,
		match: func(in classifyInput) bool {
			return str(in.raw, "type") == "text" && has(obj(in.raw, "file"), "filePath")
		},
		build: func(in classifyInput) ToolResult {
			return ReadResult{Type: ResultRead, FilePath: str(obj(in.raw, "file"), "filePath")}
		},
	},
	{
		name: ResultBash,
		match: func(in classifyInput) bool {
			return has(in.raw, "stdout") && has(in.raw, "stderr")
		},
		build: func(in classifyInput) ToolResult {
			return BashResult{
				Type:        ResultBash,
				Stdout:      str(in.raw, "stdout"),
				Stderr:      str(in.raw, "stderr"),
				Interrupted: boolean(in.raw, "interrupted"),
			}
		},
	},
	{
		name: ResultGrep,
		match: func(in classifyInput) bool {
			return has(in.raw, "mode") && has(in.raw, "numLines") && has(in.raw, "filenames")
		},
		build: func(in classifyInput) ToolResult {
			return GrepResult{
				Type:      ResultGrep,
				Mode:      str(in.raw, "mode"),
				Filenames: strs(in.raw, "filenames"),
				Content:   str(in.raw, "content"),
				NumFiles:  num(in.raw, "numFiles"),
				NumLines:  num(in.raw, "numLines"),
			}
		},
	},
	{
		name: ResultGlob,
		match: func(in classifyInput) bool {
			return has(in.raw, "filenames") && has(in.raw, "numFiles") && !has(in.raw, "mode")
		},
		build: func(in classifyInput) ToolResult {
			return GlobResult{
				Type:      ResultGlob,
				Filenames: strs(in.raw, "filenames"),
				NumFiles:  num(in.raw, "numFiles"),
				Truncated: boolean(in.raw, "truncated"),
			}
		},
	},
	{
		name: ResultTaskAgent,
		match: func(in classifyInput) bool {
			return has(in.raw, "status") && has(in.raw, "prompt") && has(in.raw, "agentId")
		},
		build: func(in classifyInput) ToolResult {
			return TaskAgentResult{
				Type:    ResultTaskAgent,
				Status:  str(in.raw, "status"),
				Prompt:  str(in.raw, "prompt"),
				AgentID: str(in.raw, "agentId"),
			}
		},
	},
	{
		name: ResultTaskCreate,
		match: func(in classifyInput) bool {
			task := obj(in.raw, "task")
			return has(task, "id") && has(task, "subject")
		},
		build: func(in classifyInput) ToolResult {
			task := obj(in.raw, "task")
			return TaskCreateResult{Type: ResultTaskCreate, TaskID: scalar(task["id"]), Subject: str(task, "subject")}
		},
	},
	{
		name: ResultTaskUpdate,
		match: func(in classifyInput) bool {
			return has(in.raw, "taskId") && has(in.raw, "updatedFields")
		},
		build: buildTaskUpdate,
	},
	{
		name: ResultGeneric,
		match: func(in classifyInput) bool {
			return len(in.raw) == 1 && has(in.raw, "message")
		},
		build: buildGeneric,
	},
	{
		name:  ResultGeneric,
		match: func(classifyInput) bool { return true },
		build: buildGeneric,
	},
}

// Classify maps a raw toolUseResult payload onto a typed ToolResult. sibling
// is the content array of the record carrying the payload and pending holds
// the tool invocations seen so far in the same transcript. It returns nil
// when raw is not a JSON object.
func Classify(raw any, sibling []ContentItem, pending map[string]ToolUseBlock) ToolResult {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	in := classifyInput{raw: m, sibling: sibling, pending: pending}
	for _, rule := range classifyRules {
		if rule.match(in) {
			return rule.build(in)
		}
	}
	return nil
}

func buildEdit(in classifyInput) ToolResult {
	r := EditResult{
		Type:         ResultEdit,
		FilePath:     str(in.raw, "filePath"),
		OldString:    str(in.raw, "oldString"),
		NewString:    str(in.raw, "newString"),
		UserModified: boolean(in.raw, "userModified"),
		ReplaceAll:   boolean(in.raw, "replaceAll"),
		Hunks:        []PatchHunk{},
	}
	hunks, _ := in.raw["structuredPatch"].([]any)
	for _, h := range hunks {
		hm, ok := h.(map[string]any)
		if !ok {
			continue
		}
		r.Hunks = append(r.Hunks, PatchHunk{
			OldStart: num(hm, "oldStart"),
			OldLines: num(hm, "oldLines"),
			NewStart: num(hm, "newStart"),
			NewLines: num(hm, "newLines"),
			Lines:    strs(hm, "lines"),
		})
	}
	return r
}

func buildTaskUpdate(in classifyInput) ToolResult {
	r := TaskUpdateResult{
		Type:          ResultTaskUpdate,
		TaskID:        scalar(in.raw["taskId"]),
		UpdatedFields: strs(in.raw, "updatedFields"),
	}
	if sc := obj(in.raw, "statusChange"); sc != nil {
		r.StatusChange = &StatusChange{From: str(sc, "from"), To: str(sc, "to")}
	}
	return r
}

func buildGeneric(in classifyInput) ToolResult {
	return GenericResult{
		Type:     ResultGeneric,
		ToolName: resolveToolName(in.sibling, in.pending),
		Raw:      in.raw,
	}
}

func resolveToolName(sibling []ContentItem, pending map[string]ToolUseBlock) string {
	for _, item := range sibling {
		if item.Type != "tool_result" || item.ToolUseID == "" {
			continue
		}
		if tu, ok := pending[item.ToolUseID]; ok && tu.Name != "" {
			return tu.Name
		}
	}
	return "unknown"
}

func has(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}

func obj(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolean(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// num reads a JSON number; encoding/json decodes them as float64.
func num(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func strs(m map[string]any, key string) []string {
	items, _ := m[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// scalar renders ids that producers emit either as strings or numbers.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
