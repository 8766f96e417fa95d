package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "system reminder removed with content",
			input: "fix the bug<system-reminder>\nignore this\n</system-reminder> please",
			want:  "fix the bug please",
		},
		{
			name:  "command metadata removed",
			input: "<command-name>/clear</command-name>\n<command-message>clear</command-message>\n<command-args></command-args>",
			want:  "",
		},
		{
			name:  "tag with attributes",
			input: `before <ide_selection path="a.go">selected code</ide_selection> after`,
			want:  "before after",
		},
		{
			name:  "distinct tags do not cross match",
			input: "<thinking>a</system-reminder> keep",
			want:  "<thinking>a</system-reminder> keep",
		},
		{
			name:  "unknown tags are kept",
			input: "<div>kept</div>",
			want:  "<div>kept</div>",
		},
		{
			name:  "nested removal reaches fixpoint",
			input: "x <system-<thinking>t</thinking>reminder>y</system-reminder> z",
			want:  "x z",
		},
		{
			name:  "horizontal whitespace collapsed",
			input: "a  \t b\t\tc",
			want:  "a b c",
		},
		{
			name:  "newlines preserved",
			input: "line one\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "three or more newlines collapsed to two",
			input: "para one\n\n\n\n\npara two",
			want:  "para one\n\npara two",
		},
		{
			name:  "blank lines holding spaces collapse too",
			input: "a\n  \n\t\n\nb",
			want:  "a\n\nb",
		},
		{
			name:  "trimmed",
			input: "  \n\thello\n\n ",
			want:  "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"simple",
		"a\n\n\n\nb",
		"a \n \n \n b",
		"<system-reminder>x</system-reminder>\n\n\n  text  \t here\n\n",
		"x <system-<thinking>t</thinking>reminder>y</system-reminder> z",
		"\t\tindented\n\t\tcode\n\n\n\n\tmore",
		"<command-name>a</command-name>   <command-name>b</command-name>",
		"a\n \nb",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		assert.NotContains(t, once, "\n\n\n")
		assert.False(t, strings.Contains(once, "\n \n \n"), "input %q", in)
	}
}
