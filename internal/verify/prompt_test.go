package verify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func goodPrompt() string {
	var sb strings.Builder
	sb.WriteString("# TASK DEMONSTRATION\n\n")
	sb.WriteString("Your goal is to create a hardware asset by filling the form and submitting it.\n\n")
	sb.WriteString("## Demonstration Steps\n\n")
	for i, line := range []string{
		`click("a17") - click the **Model** lookup element with role="combobox"`,
		`fill("a23", "MacBook Pro 16") - fill the model name element, name="Model name"`,
		`select_option("a31", "In stock") - choose the state element`,
		`click("b42") - click the Submit element to complete the task`,
	} {
		sb.WriteString("### Step ")
		sb.WriteString(string(rune('1' + i)))
		sb.WriteString("\n- Action: `")
		sb.WriteString(line)
		sb.WriteString("`\n")
	}
	sb.WriteString("\n## Key Patterns\n\n")
	sb.WriteString("- **Pattern**: fill lookup fields before submitting the form.\n")
	sb.WriteString("- **Important**: the task objective must be completed in order.\n")
	for sb.Len() < 600 {
		sb.WriteString("Fill each element carefully, then submit to reach the goal.\n")
	}
	return sb.String()
}

func TestPromptAllChecksPass(t *testing.T) {
	r := Prompt(goodPrompt())
	assert.True(t, r.Summary.AllPassed, "failed checks: %+v", r.Checks)
}

func TestPromptTooShort(t *testing.T) {
	r := Prompt("Step 1: click(\"a1\")")
	assert.False(t, checkByName(t, r, "Prompt Length").Passed)
}

func TestPromptMissingSections(t *testing.T) {
	content := strings.Repeat("just some filler text without structure\n", 30)
	r := Prompt(content)
	c := checkByName(t, r, "Required Sections")
	assert.False(t, c.Passed)
}

func TestPromptNoActionExamples(t *testing.T) {
	content := goodPrompt()
	content = strings.ReplaceAll(content, "click(", "press(")
	content = strings.ReplaceAll(content, "fill(", "type(")
	content = strings.ReplaceAll(content, "select_option(", "choose(")

	r := Prompt(content)
	assert.False(t, checkByName(t, r, "Action Code Examples").Passed)
}

func TestPromptPlaceholderDetected(t *testing.T) {
	r := Prompt(goodPrompt() + "\n[PLACEHOLDER] finish this section\n")
	assert.False(t, checkByName(t, r, "No Placeholders").Passed)
}
