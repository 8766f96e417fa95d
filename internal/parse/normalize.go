package parse

import (
	"regexp"
	"strings"
)

// controlTags are elements injected into message text by the tooling around
// the assistant. They are removed together with their content.
var controlTags = []string{
	"system-reminder",
	"command-name",
	"command-message",
	"command-args",
	"command-contents",
	"local-command-stdout",
	"local-command-stderr",
	"local-command-caveat",
	"ide_selection",
	"ide_opened_file",
	"ide_diagnostics",
	"tool_use_error",
	"thinking",
	"user-prompt-submit-hook",
	"session-start-hook",
	"environment_context",
	"user_instructions",
}

// controlTagRe has one alternative per tag so the closing name always equals
// the opening name (RE2 has no backreferences).
var controlTagRe = func() *regexp.Regexp {
	alts := make([]string, len(controlTags))
	for i, tag := range controlTags {
		t := regexp.QuoteMeta(tag)
		alts[i] = `<` + t + `(?:\s[^>]*)?>.*?</` + t + `>`
	}
	return regexp.MustCompile(`(?s)` + strings.Join(alts, "|"))
}()

var (
	hspaceRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n(?: ?\n){2,}`)
)

// Normalize strips control tags and collapses whitespace.
func Normalize(raw string) string {
	s := raw
	for {
		stripped := controlTagRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = hspaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
