package icl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/verify"
)

func demoActions() *schemas.ActionsFile {
	return &schemas.ActionsFile{
		TaskID:       "workarena.servicenow.create-hardware-asset",
		TaskTitle:    "Create Hardware Asset",
		StartURL:     "https://example.service-now.com/asset.do",
		TotalActions: 4,
		Actions: []schemas.Action{
			{Step: 1, Kind: schemas.ActionClick, BID: "a17", ElementInfo: schemas.ElementInfo{Role: "combobox", Name: "Model category"}},
			{Step: 2, Kind: schemas.ActionFill, BID: "a23", Value: "MacBook Pro 16", ElementInfo: schemas.ElementInfo{Role: "textbox", Name: "Model"}},
			{Step: 3, Kind: schemas.ActionSelectOption, BID: "a31", Option: "In stock", ElementInfo: schemas.ElementInfo{Role: "listbox", Name: "State"}},
			{Step: 4, Kind: schemas.ActionClick, BID: "b42", ElementInfo: schemas.ElementInfo{Role: "button", Name: "Submit"}},
		},
	}
}

func TestBuildPromptContainsSteps(t *testing.T) {
	prompt := BuildPrompt(demoActions(), "")

	assert.Contains(t, prompt, "HUMAN DEMONSTRATION - CREATE HARDWARE ASSET")
	assert.Contains(t, prompt, "### Step 1/4")
	assert.Contains(t, prompt, "### Step 4/4")
	assert.Contains(t, prompt, `click("a17")`)
	assert.Contains(t, prompt, `fill("a23", "MacBook Pro 16")`)
	assert.Contains(t, prompt, `select_option("a31", "In stock")`)
	assert.Contains(t, prompt, "Submitting the form to create the record")
}

func TestBuildPromptCustomGoal(t *testing.T) {
	prompt := BuildPrompt(demoActions(), "Create a hardware asset for a MacBook Pro.")
	assert.Contains(t, prompt, "Create a hardware asset for a MacBook Pro.")
}

func TestBuildPromptEscapesQuotedValues(t *testing.T) {
	af := demoActions()
	af.Actions[1].Value = `say "hello"`

	prompt := BuildPrompt(af, "")
	assert.Contains(t, prompt, `fill("a23", "say \"hello\"")`)
}

func TestBuildPromptPassesVerifier(t *testing.T) {
	prompt := BuildPrompt(demoActions(), "Create a new hardware asset record by filling the form and submitting it.")
	report := verify.Prompt(prompt)
	assert.True(t, report.Summary.AllPassed, "failed checks: %+v", report.Checks)
}

func TestBuildPromptElementFallbacks(t *testing.T) {
	af := demoActions()
	af.Actions[0].ElementInfo = schemas.ElementInfo{}

	prompt := BuildPrompt(af, "")
	assert.Contains(t, prompt, "element (bid=a17)")
	// No element metadata line for the bare action.
	firstStep := prompt[strings.Index(prompt, "### Step 1/4"):strings.Index(prompt, "### Step 2/4")]
	assert.NotContains(t, firstStep, "**Element:**")
}
