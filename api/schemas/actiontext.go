package schemas

import (
	"fmt"
	"regexp"
	"strings"
)

// The textual action encoding consumed by the benchmark environment:
//
//	click("<bid>")
//	fill("<bid>", "<value>")
//	select_option("<bid>", "<option>")
//	noop()
//
// The grammar is shared by replay (encoding recorded actions) and by agent
// evaluation (parsing a model's free-text response), so encode(decode(s))
// must round-trip any well-formed string.
var (
	clickTextRe  = regexp.MustCompile(`^click\(["']([^"']+)["']\)$`)
	fillTextRe   = regexp.MustCompile(`^fill\(["']([^"']+)["'],\s*["'](.*)["']\)$`)
	selectTextRe = regexp.MustCompile(`^select_option\(["']([^"']+)["'],\s*["'](.*)["']\)$`)
	noopTextRe   = regexp.MustCompile(`^noop\(\s*\)$`)
	scrollTextRe = regexp.MustCompile(`^scroll\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)$`)
)

// ParsedAction is the result of decoding an action string. Unrecognized
// input is preserved verbatim in Raw with Kind left empty, so callers can
// surface the original text in diagnostics.
type ParsedAction struct {
	Kind  ActionKind `json:"kind"`
	BID   string     `json:"bid,omitempty"`
	Value string     `json:"value,omitempty"`
	Raw   string     `json:"raw,omitempty"`
}

// Known reports whether the string decoded to a supported action kind.
func (p ParsedAction) Known() bool { return p.Kind != "" }

// ParseActionText decodes one textual action. Whitespace around the input is
// ignored; both single and double quoted arguments are accepted.
func ParseActionText(s string) ParsedAction {
	s = strings.TrimSpace(s)

	if m := fillTextRe.FindStringSubmatch(s); m != nil {
		return ParsedAction{Kind: ActionFill, BID: m[1], Value: unescapeActionArg(m[2])}
	}
	if m := selectTextRe.FindStringSubmatch(s); m != nil {
		return ParsedAction{Kind: ActionSelectOption, BID: m[1], Value: unescapeActionArg(m[2])}
	}
	if m := clickTextRe.FindStringSubmatch(s); m != nil {
		return ParsedAction{Kind: ActionClick, BID: m[1]}
	}
	if noopTextRe.MatchString(s) {
		return ParsedAction{Kind: ActionNoop}
	}
	if scrollTextRe.MatchString(s) {
		return ParsedAction{Kind: ActionScroll, Raw: s}
	}
	return ParsedAction{Raw: s}
}

// Text re-encodes a parsed action in canonical double-quoted form.
func (p ParsedAction) Text() string {
	switch p.Kind {
	case ActionFill:
		return fmt.Sprintf(`fill("%s", "%s")`, p.BID, escapeActionArg(p.Value))
	case ActionSelectOption:
		return fmt.Sprintf(`select_option("%s", "%s")`, p.BID, escapeActionArg(p.Value))
	case ActionClick:
		return fmt.Sprintf(`click("%s")`, p.BID)
	case ActionNoop:
		return "noop()"
	default:
		return p.Raw
	}
}

// Text encodes a normalized action for replay or for inclusion in a
// demonstration prompt.
func (a Action) Text() string {
	switch a.Kind {
	case ActionFill:
		return fmt.Sprintf(`fill("%s", "%s")`, a.BID, escapeActionArg(a.Value))
	case ActionSelectOption:
		return fmt.Sprintf(`select_option("%s", "%s")`, a.BID, escapeActionArg(a.Option))
	default:
		return fmt.Sprintf(`%s("%s")`, a.Kind, a.BID)
	}
}

func escapeActionArg(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeActionArg(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}
