package verify

import (
	"fmt"
	"regexp"
	"strings"
)

// Bounds on a usable demonstration prompt. Below the floor the prompt cannot
// contain a real demonstration; above the ceiling it will blow the model's
// context for no benefit.
const (
	minPromptLen = 500
	maxPromptLen = 50000
)

var requiredPromptSections = []string{"DEMONSTRATION", "TASK", "STEP", "PATTERN"}

var (
	promptStepRe    = regexp.MustCompile(`(?i)step\s+(\d+)`)
	promptActionRe  = regexp.MustCompile(`(?:click|fill|select_option)\(["'][^"']+["'](?:,\s*["'][^"']*["'])?\)`)
	promptElemRefRe = regexp.MustCompile(`(?i)(?:role|name)[=:]["'][^"']+["']|\bbid\b|\belement\b`)
	promptGoalRe    = regexp.MustCompile(`(?i)\b(?:goal|task|objective|create|fill|submit)\b`)
	headerRe        = regexp.MustCompile(`(?m)^#+\s+`)
	boldRe          = regexp.MustCompile(`\*\*[^*]+\*\*`)
	inlineCodeRe    = regexp.MustCompile("`[^`]+`")
	listItemRe      = regexp.MustCompile(`(?m)^[-*]\s+|^\d+\.\s+`)
	placeholderRe   = regexp.MustCompile(`(?i)\[TODO\]|\[PLACEHOLDER\]|<INSERT[^>]*>|\bFIXME\b|\bXXX\b`)
)

// Prompt verifies a generated in-context demonstration prompt.
func Prompt(content string) Report {
	b := newBattery("prompt")

	length := len(content)
	lenOK := length >= minPromptLen && length <= maxPromptLen
	b.add("Prompt Length", lenOK,
		checkMsg(lenOK,
			fmt.Sprintf("prompt length: %d chars, %d lines", length, strings.Count(content, "\n")+1),
			fmt.Sprintf("prompt length out of range: %d (expected %d-%d)", length, minPromptLen, maxPromptLen)),
		map[string]any{"char_count": length})

	upper := strings.ToUpper(content)
	var missing []string
	for _, section := range requiredPromptSections {
		if !strings.Contains(upper, section) {
			missing = append(missing, section)
		}
	}
	b.add("Required Sections", len(missing) == 0,
		checkMsg(len(missing) == 0, "all required sections found", fmt.Sprintf("missing sections: %v", missing)),
		map[string]any{"missing_sections": missing})

	stepNums := map[string]bool{}
	for _, m := range promptStepRe.FindAllStringSubmatch(content, -1) {
		stepNums[m[1]] = true
	}
	b.add("Step Format", len(stepNums) >= 1,
		checkMsg(len(stepNums) >= 1, fmt.Sprintf("found %d demonstration steps", len(stepNums)), "no step-by-step format found"),
		map[string]any{"step_count": len(stepNums)})

	actionExamples := promptActionRe.FindAllString(content, -1)
	b.add("Action Code Examples", len(actionExamples) >= 1,
		checkMsg(len(actionExamples) >= 1, fmt.Sprintf("found %d action code examples", len(actionExamples)), "no action code examples found"),
		map[string]any{"total_action_examples": len(actionExamples)})

	elemRefs := len(promptElemRefRe.FindAllString(content, -1))
	b.add("Element References", elemRefs >= 3,
		checkMsg(elemRefs >= 3, fmt.Sprintf("found %d element references", elemRefs), "insufficient element references"),
		map[string]any{"element_references": elemRefs})

	goalRefs := len(promptGoalRe.FindAllString(content, -1))
	b.add("Goal References", goalRefs >= 5,
		checkMsg(goalRefs >= 5, fmt.Sprintf("found %d goal-related keywords", goalRefs), "insufficient goal references"),
		map[string]any{"goal_references": goalRefs})

	formatting := len(headerRe.FindAllString(content, -1)) +
		len(boldRe.FindAllString(content, -1)) +
		len(inlineCodeRe.FindAllString(content, -1)) +
		len(listItemRe.FindAllString(content, -1))
	b.add("Markdown Formatting", formatting >= 5,
		checkMsg(formatting >= 5, fmt.Sprintf("found %d formatting elements", formatting), "minimal formatting"),
		map[string]any{"formatting_elements": formatting})

	placeholders := placeholderRe.FindAllString(content, -1)
	b.add("No Placeholders", len(placeholders) == 0,
		checkMsg(len(placeholders) == 0, "no incomplete placeholders found", fmt.Sprintf("found %d placeholders", len(placeholders))),
		map[string]any{"placeholders": placeholders})

	return b.report()
}
