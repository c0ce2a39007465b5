// Package llmutil cleans raw language-model output into usable action text.
package llmutil

import (
	"strings"

	"github.com/hmwatts/tracebench/api/schemas"
)

// ExtractAction strips Markdown code fences from a model response and
// returns the first non-empty line, which is treated as the action string.
// Models asked for a single action routinely wrap it in a fenced block or
// pad it with commentary; everything after the first line is discarded.
func ExtractAction(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) > 2 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 && strings.HasSuffix(strings.TrimSpace(s), "```") {
		s = s[:idx]
	}

	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ExtractParsedAction cleans a response and decodes it through the action
// grammar. Anything unparseable comes back with Kind unset and the cleaned
// text in Raw.
func ExtractParsedAction(response string) schemas.ParsedAction {
	return schemas.ParseActionText(ExtractAction(response))
}
