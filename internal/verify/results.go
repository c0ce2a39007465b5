package verify

import (
	"fmt"
	"math"
	"time"

	"github.com/hmwatts/tracebench/api/schemas"
)

// successRateTolerance bounds the drift between a reported success rate and
// one recomputed from the runs. Float accumulation order differs between
// writers, exact equality does not hold.
const successRateTolerance = 0.01

// maxPlausibleSteps flags runs whose step count indicates a broken loop.
const maxPlausibleSteps = 1000

// Results verifies an evaluation-results artifact.
func Results(er *schemas.EvalResults) Report {
	b := newBattery("results")

	var missing []string
	if er.TaskID == "" {
		missing = append(missing, "task_id")
	}
	if er.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if len(er.Seeds) == 0 {
		missing = append(missing, "seeds")
	}
	if len(er.Models) == 0 {
		missing = append(missing, "models")
	}
	b.add("Results Structure", len(missing) == 0,
		checkMsg(len(missing) == 0, "all required fields present", fmt.Sprintf("missing: %v", missing)),
		map[string]any{"missing": missing})

	allRuns := flattenRuns(er)
	b.add("Evaluations Present", len(allRuns) > 0,
		checkMsg(len(allRuns) > 0, fmt.Sprintf("found %d evaluations", len(allRuns)), "no evaluations found"),
		map[string]any{"evaluation_count": len(allRuns)})
	if len(allRuns) == 0 {
		return b.report()
	}

	verifyRunStructure(b, allRuns)
	verifySuccessRates(b, er)
	verifySeedCoverage(b, er, allRuns)
	verifyModelCoverage(b, er, allRuns)
	verifyRewards(b, allRuns)
	verifyRunStepCounts(b, allRuns)
	verifySuccessRewardConsistency(b, allRuns)
	verifyResultsTimestamp(b, er.Timestamp)
	return b.report()
}

func flattenRuns(er *schemas.EvalResults) []schemas.RunResult {
	var all []schemas.RunResult
	for _, runs := range er.Evaluations {
		all = append(all, runs...)
	}
	return all
}

func verifyRunStructure(b *battery, runs []schemas.RunResult) {
	invalid := 0
	for _, r := range runs {
		if r.Model == "" {
			invalid++
		}
	}
	b.add("Run Structure", invalid == 0,
		checkMsg(invalid == 0, fmt.Sprintf("all %d runs have valid structure", len(runs)), fmt.Sprintf("%d runs invalid", invalid)),
		map[string]any{"total_runs": len(runs), "invalid_runs": invalid})
}

// verifySuccessRates recomputes each condition's success rate from its runs
// and compares against the reported summary within tolerance.
func verifySuccessRates(b *battery, er *schemas.EvalResults) {
	var issues []string
	for condition, runs := range er.Evaluations {
		if len(runs) == 0 {
			continue
		}
		successes := 0
		for _, r := range runs {
			if r.Success {
				successes++
			}
		}
		actual := float64(successes) / float64(len(runs))
		summary, ok := er.Summary[condition]
		if !ok {
			issues = append(issues, fmt.Sprintf("no summary for condition %q", condition))
			continue
		}
		if math.Abs(summary.SuccessRate-actual) > successRateTolerance {
			issues = append(issues, fmt.Sprintf("%s: reported %.3f vs recomputed %.3f", condition, summary.SuccessRate, actual))
		}
	}
	b.add("Success Rate Calculation", len(issues) == 0,
		checkMsg(len(issues) == 0, "reported success rates match recomputation", fmt.Sprintf("calculation issues: %v", issues)),
		map[string]any{"issues": issues})
}

func verifySeedCoverage(b *battery, er *schemas.EvalResults, runs []schemas.RunResult) {
	covered := map[int]bool{}
	for _, r := range runs {
		covered[r.Seed] = true
	}
	var missing []int
	for _, s := range er.Seeds {
		if !covered[s] {
			missing = append(missing, s)
		}
	}
	b.add("Seeds Coverage", len(missing) == 0,
		checkMsg(len(missing) == 0, fmt.Sprintf("all %d seeds covered", len(er.Seeds)), fmt.Sprintf("missing seeds: %v", missing)),
		map[string]any{"expected_seeds": er.Seeds, "missing": missing})
}

func verifyModelCoverage(b *battery, er *schemas.EvalResults, runs []schemas.RunResult) {
	covered := map[string]bool{}
	for _, r := range runs {
		covered[r.Model] = true
	}
	var missing []string
	for _, m := range er.Models {
		if !covered[m] {
			missing = append(missing, m)
		}
	}
	b.add("Models Coverage", len(missing) == 0,
		checkMsg(len(missing) == 0, fmt.Sprintf("all %d models covered", len(er.Models)), fmt.Sprintf("missing models: %v", missing)),
		map[string]any{"expected_models": er.Models, "missing": missing})
}

func verifyRewards(b *battery, runs []schemas.RunResult) {
	dist := map[string]int{"positive": 0, "zero": 0, "negative": 0}
	invalid := 0
	for _, r := range runs {
		switch {
		case math.IsNaN(r.Reward) || math.IsInf(r.Reward, 0):
			invalid++
		case r.Reward > 0:
			dist["positive"]++
		case r.Reward < 0:
			dist["negative"]++
		default:
			dist["zero"]++
		}
	}
	b.add("Reward Values", invalid == 0,
		checkMsg(invalid == 0, "all rewards valid", fmt.Sprintf("%d invalid rewards", invalid)),
		map[string]any{"distribution": dist, "invalid": invalid})
}

func verifyRunStepCounts(b *battery, runs []schemas.RunResult) {
	minSteps, maxSteps, sum := runs[0].Steps, runs[0].Steps, 0
	for _, r := range runs {
		if r.Steps < minSteps {
			minSteps = r.Steps
		}
		if r.Steps > maxSteps {
			maxSteps = r.Steps
		}
		sum += r.Steps
	}
	passed := minSteps >= 0 && maxSteps <= maxPlausibleSteps
	b.add("Step Counts", passed,
		checkMsg(passed,
			fmt.Sprintf("steps range %d-%d, avg %.1f", minSteps, maxSteps, float64(sum)/float64(len(runs))),
			fmt.Sprintf("implausible step counts: range %d-%d", minSteps, maxSteps)),
		map[string]any{"min_steps": minSteps, "max_steps": maxSteps})
}

func verifySuccessRewardConsistency(b *battery, runs []schemas.RunResult) {
	inconsistent := 0
	for _, r := range runs {
		if (r.Success && r.Reward <= 0) || (!r.Success && r.Reward > 0) {
			inconsistent++
		}
	}
	b.add("Success-Reward Consistency", inconsistent == 0,
		checkMsg(inconsistent == 0, "success flags match reward values", fmt.Sprintf("%d inconsistencies", inconsistent)),
		map[string]any{"inconsistent": inconsistent})
}

func verifyResultsTimestamp(b *battery, ts string) {
	_, err := time.Parse(time.RFC3339, ts)
	b.add("Timestamp", err == nil,
		checkMsg(err == nil, fmt.Sprintf("valid timestamp: %s", ts), fmt.Sprintf("invalid timestamp format: %s", ts)),
		map[string]any{"timestamp": ts})
}
