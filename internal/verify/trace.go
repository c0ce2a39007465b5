package verify

import (
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/hmwatts/tracebench/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tolerances for raw trace quality. The capture extension loses data under
// load, so structural checks accept bounded noise rather than demanding
// perfection.
const (
	maxInvalidEventRatio = 0.10
	maxOutOfOrderRatio   = 0.05
	minValidBIDRatio     = 0.90
	minViableCaptureLen  = 100
	minViableCaptureRate = 0.80
	minA11yRatio         = 0.50
)

// TraceFile loads and verifies a raw trace file. An unreadable or undecodable
// file short-circuits: every later check would be about a document that does
// not exist.
func TraceFile(path string) Report {
	b := newBattery("trace")

	data, err := os.ReadFile(path)
	if !b.add("File Exists", err == nil, checkMsg(err == nil, "trace file readable", "cannot read trace file"), map[string]any{"path": path}) {
		return b.report()
	}

	var tr schemas.Trace
	err = json.Unmarshal(data, &tr)
	if !b.add("Valid JSON", err == nil, checkMsg(err == nil, "trace parses as JSON", "trace is not valid JSON"), map[string]any{"size_bytes": len(data)}) {
		return b.report()
	}

	return Trace(&tr, b)
}

// Trace runs the structural and statistical battery over a decoded trace.
// Passing a battery lets TraceFile prepend its I/O checks; callers with an
// in-memory trace pass nil.
func Trace(tr *schemas.Trace, b *battery) Report {
	if b == nil {
		b = newBattery("trace")
	}

	missing := []string{}
	if tr.ID == "" {
		missing = append(missing, "id")
	}
	if tr.Title == "" {
		missing = append(missing, "title")
	}
	if tr.StartURL == "" {
		missing = append(missing, "startUrl")
	}
	b.add("Top-Level Structure", len(missing) == 0,
		checkMsg(len(missing) == 0, "required top-level fields present", "missing required fields"),
		map[string]any{"missing": missing})

	b.add("Events Array", len(tr.Events) > 0,
		checkMsg(len(tr.Events) > 0, "events array is non-empty", "no events recorded"),
		map[string]any{"event_count": len(tr.Events)})
	if len(tr.Events) == 0 {
		return b.report()
	}

	verifyEventSchemas(b, tr.Events)
	verifyTimestamps(b, tr.Events)
	verifyBIDs(b, tr.Events)
	verifyHTMLCaptures(b, tr.Events)
	verifyA11y(b, tr.Events)
	return b.report()
}

func verifyEventSchemas(b *battery, events []schemas.RawEvent) {
	typeCounts := map[schemas.EventType]int{}
	invalid := 0
	for _, ev := range events {
		typeCounts[ev.Type]++
		if ev.Type == "" || !schemas.ValidEventTypes[ev.Type] {
			invalid++
		}
	}
	ratio := float64(invalid) / float64(len(events))
	passed := ratio < maxInvalidEventRatio
	b.add("Event Schemas", passed,
		checkMsg(passed, "event types within the capture vocabulary", "too many unknown event types"),
		map[string]any{
			"total_events":      len(events),
			"invalid_events":    invalid,
			"invalid_ratio_pct": pct(invalid, len(events)),
			"event_type_counts": typeCounts,
		})
}

func verifyTimestamps(b *battery, events []schemas.RawEvent) {
	outOfOrder := 0
	maxGap := 0.0
	prev := events[0].Timestamp
	for _, ev := range events[1:] {
		if ev.Timestamp < prev {
			outOfOrder++
		}
		if gap := ev.Timestamp - prev; gap > maxGap {
			maxGap = gap
		}
		prev = ev.Timestamp
	}
	ratio := float64(outOfOrder) / float64(len(events))
	passed := ratio < maxOutOfOrderRatio
	b.add("Timestamp Consistency", passed,
		checkMsg(passed, "timestamps mostly monotonic", "too many out-of-order timestamps"),
		map[string]any{
			"out_of_order":           outOfOrder,
			"out_of_order_ratio_pct": pct(outOfOrder, len(events)),
			"duration_ms":            events[len(events)-1].Timestamp - events[0].Timestamp,
			"max_gap_ms":             maxGap,
		})
}

func verifyBIDs(b *battery, events []schemas.RawEvent) {
	total, valid := 0, 0
	unique := map[string]bool{}
	for _, ev := range events {
		if ev.IsObservation() || ev.Target == nil {
			continue
		}
		total++
		if ev.Target.BID != "" {
			valid++
			unique[ev.Target.BID] = true
		}
	}
	passed := total == 0 || float64(valid)/float64(total) > minValidBIDRatio
	b.add("Element IDs", passed,
		checkMsg(passed, "interaction events carry stable element ids", "too many events missing element ids"),
		map[string]any{
			"events_with_target": total,
			"valid_bids":         valid,
			"unique_bids":        len(unique),
			"valid_ratio_pct":    pct(valid, total),
		})
}

func verifyHTMLCaptures(b *battery, events []schemas.RawEvent) {
	captures, viable, totalSize := 0, 0, 0
	for _, ev := range events {
		if !ev.IsObservation() {
			continue
		}
		captures++
		if len(ev.HTML) > minViableCaptureLen {
			viable++
			totalSize += len(ev.HTML)
		}
	}
	if captures == 0 {
		b.warnf("no HTML captures found in trace")
		b.add("HTML Captures", true, "no HTML captures found (may be expected)", map[string]any{"capture_count": 0})
		return
	}
	passed := float64(viable)/float64(captures) > minViableCaptureRate
	avgKB := 0.0
	if viable > 0 {
		avgKB = float64(totalSize) / float64(viable) / 1024
	}
	b.add("HTML Captures", passed,
		checkMsg(passed, "HTML captures are viable", "too many empty or truncated captures"),
		map[string]any{
			"total_captures":  captures,
			"viable_captures": viable,
			"avg_size_kb":     avgKB,
		})
}

func verifyA11y(b *battery, events []schemas.RawEvent) {
	total, withA11y := 0, 0
	for _, ev := range events {
		if ev.IsObservation() || ev.Target == nil {
			continue
		}
		total++
		if ev.Target.A11y.Role != "" || ev.Target.A11y.Name != "" {
			withA11y++
		}
	}
	passed := total == 0 || float64(withA11y)/float64(total) > minA11yRatio
	b.add("Accessibility Data", passed,
		checkMsg(passed, "accessibility metadata present", "insufficient accessibility metadata"),
		map[string]any{
			"total_events":   total,
			"has_a11y":       withA11y,
			"a11y_ratio_pct": pct(withA11y, total),
		})
}

func checkMsg(passed bool, ok, bad string) string {
	if passed {
		return ok
	}
	return bad
}
