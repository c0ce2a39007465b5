package verify

import (
	"fmt"

	"github.com/hmwatts/tracebench/api/schemas"
)

// Pairing-quality tolerances. Misalignment and missing-bid noise are
// expected at low rates; the thresholds flag broken instrumentation, not
// occasional loss.
const (
	minBIDInHTMLRatio     = 0.50
	maxMisalignedRatio    = 0.10
	minElementInfoQuality = 0.30
)

// Pairing verifies a paired-trajectory artifact.
func Pairing(pt *schemas.PairedTrajectory) Report {
	b := newBattery("pairing")

	b.add("Trajectory Present", len(pt.Trajectory) > 0,
		checkMsg(len(pt.Trajectory) > 0, fmt.Sprintf("found %d trajectory steps", len(pt.Trajectory)), "no trajectory found"),
		map[string]any{"step_count": len(pt.Trajectory)})
	if len(pt.Trajectory) == 0 {
		return b.report()
	}

	verifyPairingStats(b, pt)
	verifyStepStructure(b, pt.Trajectory)
	verifyObservationFormat(b, pt.Trajectory)
	verifyBIDHTMLPresence(b, pt.Trajectory)
	verifyStepSequence(b, trajectorySteps(pt.Trajectory))
	verifyTemporalAlignment(b, pt.Trajectory)
	verifyElementInfoQuality(b, pt.Trajectory)
	verifyStatsConsistency(b, pt)
	return b.report()
}

func trajectorySteps(steps []schemas.TrajectoryStep) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Step
	}
	return out
}

func verifyPairingStats(b *battery, pt *schemas.PairedTrajectory) {
	s := pt.Stats
	populated := 0
	for _, v := range []int{s.TotalRawEvents, s.TotalObservations, s.TotalKeyEvents, s.TotalPairs, s.ValidPairs} {
		if v > 0 {
			populated++
		}
	}
	passed := populated >= 3
	b.add("Stats Present", passed,
		checkMsg(passed, "pairing stats populated", "pairing stats missing or empty"),
		map[string]any{"populated_fields": populated, "stats": s})
}

func verifyStepStructure(b *battery, steps []schemas.TrajectoryStep) {
	var invalid []int
	for i, s := range steps {
		if s.Step == 0 || s.Action.BID == "" || !schemas.ValidActionKinds[s.Action.Kind] {
			invalid = append(invalid, i)
		}
	}
	b.add("Step Structure", len(invalid) == 0,
		checkMsg(len(invalid) == 0, fmt.Sprintf("all %d steps have required fields", len(steps)), fmt.Sprintf("%d steps missing fields", len(invalid))),
		map[string]any{"invalid_indices": clip(invalid)})
}

func verifyObservationFormat(b *battery, steps []schemas.TrajectoryStep) {
	var invalid []int
	for i, s := range steps {
		hasContent := s.Observation.HTML != "" || s.Observation.HTMLLength > 0 || s.Observation.URL != ""
		if !hasContent {
			invalid = append(invalid, i)
		}
	}
	b.add("Observation Format", len(invalid) == 0,
		checkMsg(len(invalid) == 0, "all observations carry page state", fmt.Sprintf("%d observations empty", len(invalid))),
		map[string]any{"invalid_indices": clip(invalid)})
}

func verifyBIDHTMLPresence(b *battery, steps []schemas.TrajectoryStep) {
	found := 0
	for _, s := range steps {
		if s.BIDFoundInHTML {
			found++
		}
	}
	passed := float64(found)/float64(len(steps)) >= minBIDInHTMLRatio
	b.add("BID-HTML Presence", passed,
		checkMsg(passed,
			fmt.Sprintf("%d/%d actions have their element in the paired snapshot", found, len(steps)),
			fmt.Sprintf("low BID-HTML match: %.0f%%", pct(found, len(steps)))),
		map[string]any{
			"bid_found":       found,
			"bid_missing":     len(steps) - found,
			"valid_ratio_pct": pct(found, len(steps)),
		})
}

// verifyTemporalAlignment flags pairs whose snapshot postdates the action.
// The pairer's first-observation fallback produces a bounded number of these.
func verifyTemporalAlignment(b *battery, steps []schemas.TrajectoryStep) {
	misaligned := 0
	for _, s := range steps {
		if s.EventTimestamp > 0 && s.Observation.Timestamp > s.EventTimestamp {
			misaligned++
		}
	}
	passed := float64(misaligned) < float64(len(steps))*maxMisalignedRatio
	b.add("Temporal Alignment", passed,
		checkMsg(passed, "observation-action temporal alignment OK", fmt.Sprintf("%d misaligned pairs", misaligned)),
		map[string]any{"total_pairs": len(steps), "misaligned": misaligned})
}

func verifyElementInfoQuality(b *battery, steps []schemas.TrajectoryStep) {
	withRole, withName, withTag := 0, 0, 0
	for _, s := range steps {
		if s.ElementInfo.Role != "" {
			withRole++
		}
		if s.ElementInfo.Name != "" {
			withName++
		}
		if s.ElementInfo.TagName != "" {
			withTag++
		}
	}
	quality := float64(withRole+withName+withTag) / float64(len(steps)*3)
	passed := quality >= minElementInfoQuality
	b.add("Element Info Quality", passed,
		fmt.Sprintf("element info quality: %.0f%%", quality*100),
		map[string]any{
			"with_role": withRole, "with_name": withName, "with_tag": withTag,
			"quality_pct": quality * 100,
		})
}

func verifyStatsConsistency(b *battery, pt *schemas.PairedTrajectory) {
	var issues []string
	if pt.Stats.TotalPairs != len(pt.Trajectory) {
		issues = append(issues, fmt.Sprintf("total_pairs (%d) != trajectory length (%d)", pt.Stats.TotalPairs, len(pt.Trajectory)))
	}
	if pt.Stats.ValidPairs > pt.Stats.TotalPairs {
		issues = append(issues, fmt.Sprintf("valid_pairs (%d) > total_pairs (%d)", pt.Stats.ValidPairs, pt.Stats.TotalPairs))
	}
	b.add("Stats Consistency", len(issues) == 0,
		checkMsg(len(issues) == 0, "stats consistent with trajectory", fmt.Sprintf("%d inconsistencies", len(issues))),
		map[string]any{"issues": issues})
}
