// Package icl builds in-context-learning prompts from recorded human
// demonstrations, turning a reduced-actions artifact into the step-by-step
// walkthrough handed to an agent as its demonstration condition.
package icl

import (
	"fmt"
	"strings"

	"github.com/hmwatts/tracebench/api/schemas"
)

const sectionRule = "============================================================"

// BuildPrompt renders a demonstration prompt from a reduced-actions artifact.
// The layout (task overview, numbered steps with action code and element
// metadata, key patterns, usage notes) is what the prompt verifier checks.
func BuildPrompt(af *schemas.ActionsFile, goal string) string {
	var sb strings.Builder
	total := len(af.Actions)

	sb.WriteString(sectionRule + "\n")
	sb.WriteString("HUMAN DEMONSTRATION - " + strings.ToUpper(af.TaskTitle) + "\n")
	sb.WriteString(sectionRule + "\n\n")

	sb.WriteString("## TASK OVERVIEW\n")
	fmt.Fprintf(&sb, "Task: %s\n", af.TaskTitle)
	fmt.Fprintf(&sb, "Task ID: %s\n", af.TaskID)
	fmt.Fprintf(&sb, "Starting URL: %s\n", af.StartURL)
	fmt.Fprintf(&sb, "Total Steps: %d\n\n", total)

	sb.WriteString("## GOAL\n")
	if goal == "" {
		goal = "Complete the demonstrated form task by filling out the required field values and submitting."
	}
	sb.WriteString(goal + "\n\n")

	sb.WriteString("## STEP-BY-STEP DEMONSTRATION\n\n")
	for _, act := range af.Actions {
		fmt.Fprintf(&sb, "### Step %d/%d\n", act.Step, total)
		fmt.Fprintf(&sb, "**Action:** %s\n", describeAction(act))
		fmt.Fprintf(&sb, "**Code:** `%s`\n", act.Text())
		if act.ElementInfo.Role != "" || act.ElementInfo.Name != "" {
			fmt.Fprintf(&sb, "**Element:** role=%q, name=%q\n", act.ElementInfo.Role, act.ElementInfo.Name)
		}
		if why := inferReasoning(act); why != "" {
			fmt.Fprintf(&sb, "**Why:** %s\n", why)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## KEY PATTERNS\n")
	sb.WriteString("- **Form Filling:** Fill input fields with required values\n")
	sb.WriteString("- **Lookup Fields:** Click reference fields, type to search, select from dropdown\n")
	sb.WriteString("- **Submit:** Click 'Submit' or 'Insert' button to create the record\n\n")

	sb.WriteString("## HOW TO USE THIS DEMONSTRATION\n")
	sb.WriteString("1. Identify input fields by their role and name\n")
	sb.WriteString("2. Fill fields with the values from the goal\n")
	sb.WriteString("3. For reference/lookup fields, type the value and select from dropdown\n")
	sb.WriteString("4. Click Submit to create the record\n\n")
	sb.WriteString(sectionRule + "\n")

	return sb.String()
}

func describeAction(act schemas.Action) string {
	elem := describeElement(act)
	switch act.Kind {
	case schemas.ActionClick:
		return "Click on " + elem
	case schemas.ActionFill:
		return fmt.Sprintf("Type %q into %s", act.Value, elem)
	case schemas.ActionSelectOption:
		return fmt.Sprintf("Select option %q from %s", act.Option, elem)
	default:
		return fmt.Sprintf("%s on %s", act.Kind, elem)
	}
}

func describeElement(act schemas.Action) string {
	role, name := act.ElementInfo.Role, act.ElementInfo.Name
	switch {
	case name != "" && role != "":
		return fmt.Sprintf("%s %q", role, name)
	case name != "":
		return fmt.Sprintf("%q", name)
	case role != "":
		return fmt.Sprintf("%s (bid=%s)", role, act.BID)
	default:
		return fmt.Sprintf("element (bid=%s)", act.BID)
	}
}

func inferReasoning(act schemas.Action) string {
	name := strings.ToLower(act.ElementInfo.Name)
	switch act.Kind {
	case schemas.ActionFill:
		field := name
		if field == "" {
			field = act.BID
		}
		return fmt.Sprintf("Filling in the %s field with the required value", field)
	case schemas.ActionSelectOption:
		return "Selecting the appropriate option from the dropdown"
	case schemas.ActionClick:
		switch {
		case strings.Contains(name, "submit"), strings.Contains(name, "save"), strings.Contains(name, "insert"):
			return "Submitting the form to create the record"
		case strings.Contains(name, "model"), strings.Contains(name, "category"):
			return "Opening a lookup field to select from"
		}
	}
	return ""
}
