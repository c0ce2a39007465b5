package eval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/gym"
	"github.com/hmwatts/tracebench/internal/llmutil"
)

// BaselineSystemPrompt instructs the agent with no demonstration, only the
// action grammar and general form-navigation guidance.
const BaselineSystemPrompt = `You are an expert AI agent controlling a web browser to complete web forms.

## YOUR TASK
Read the goal carefully. Extract the EXACT field values you need to fill. Then find matching elements in the accessibility tree.

## AVAILABLE ACTIONS
- click(bid): Click element - use for buttons, tabs, dropdowns, lookup icons
- fill(bid, text): Type into text fields - find elements with role="textbox"
- select_option(bid, option): Select from dropdown AFTER it's open
- scroll(x, y): Scroll if needed
- noop(): Wait/do nothing

## FORM PATTERNS
1. **Lookup/Reference Fields**: click the lookup icon first, then click the option that matches your value
2. **Text Input Fields**: find by role="textbox" and matching name, use fill(bid, "your value")
3. **Dropdown Fields**: click() to open, then click() the option
4. **Tabs**: look for role="tab" with the tab name, click() to switch
5. **Submit**: look for role="button" with name "Submit" or "Insert", click it LAST

## CRITICAL RULES
- ALWAYS check the goal for exact values to fill
- Match field names from the goal to element names in the accessibility tree
- DON'T keep clicking the same element repeatedly
- DON'T submit before filling all required fields

## OUTPUT FORMAT
Output ONLY the action code. No explanation. No markdown.
Example: click('123') or fill('456', 'some value')`

// ICLSystemPrompt wraps a recorded human demonstration into the agent's
// system prompt for the in-context-learning condition.
func ICLSystemPrompt(demonstration string) string {
	return `You are an AI agent controlling a web browser to complete a task.
You will receive the current goal and the current observation (accessibility tree).
Your goal is to complete the task efficiently.

Output ONLY the code for the next action to execute. Do not output markdown blocks or explanations.
Example: click('123') or fill('456', 'some value')

Available actions:
- click(bid): Click on element with given browsergym ID
- fill(bid, text): Type text into input element
- select_option(bid, option): Select option from dropdown
- scroll(x, y): Scroll the page
- noop(): Do nothing

` + demonstration + `

Now complete the current task following similar patterns.`
}

// agent holds one run's LLM collaborator and prompting state.
type agent struct {
	llm          schemas.LLMClient
	systemPrompt string
	temperature  float32
	maxTokens    int
	axTreeLimit  int
	logger       *zap.Logger
}

// nextAction asks the model for the next action given the current
// observation. Any failure, empty response included, degrades to noop() so
// the run continues and the repetition detector can end it if the model is
// truly stuck.
func (a *agent) nextAction(ctx context.Context, obs gym.Observation) string {
	axTree := obs.AxTree
	if a.axTreeLimit > 0 && len(axTree) > a.axTreeLimit {
		axTree = axTree[:a.axTreeLimit]
	}
	lastErr := obs.LastActionError
	if lastErr == "" {
		lastErr = "None"
	}

	userPrompt := fmt.Sprintf(`Goal: %s

Current Observation (Accessibility Tree):
%s

Last Action Error: %s

Output the next action:`, obs.Goal, axTree, lastErr)

	response, err := a.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: a.systemPrompt,
		UserPrompt:   userPrompt,
		Options: schemas.GenerationOptions{
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
		},
	})
	if err != nil {
		a.logger.Warn("LLM call failed, substituting noop", zap.Error(err))
		return "noop()"
	}

	action := llmutil.ExtractAction(response)
	if strings.TrimSpace(action) == "" {
		return "noop()"
	}
	return action
}
