package trace

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/hmwatts/tracebench/api/schemas"
	"github.com/hmwatts/tracebench/internal/observability"
)

// bidAttrs are the attribute names the instrumentation uses to stamp stable
// element identifiers into the DOM.
var bidAttrs = []string{"data-bid", "bid"}

// Pair associates each action with the latest observation whose timestamp
// does not exceed the action's timestamp. Both inputs must already be sorted
// ascending by timestamp (Split and Normalize guarantee this); the scan is a
// single forward two-pointer pass, linear in the combined length.
//
// An action that fires before the first recorded snapshot pairs with that
// first snapshot. The capture extension writes its initial snapshot slightly
// after instrumentation attaches, so this degeneracy is expected and reported
// through stats rather than treated as fatal.
func Pair(actions []schemas.Action, observations []schemas.RawEvent) []schemas.TrajectoryStep {
	log := observability.GetLogger().Named("pairer")
	if len(observations) == 0 {
		log.Warn("no observations recorded, trajectory will be empty",
			zap.Int("actions", len(actions)))
		return nil
	}

	steps := make([]schemas.TrajectoryStep, 0, len(actions))
	j := 0
	for _, act := range actions {
		for j+1 < len(observations) && observations[j+1].Timestamp <= act.Timestamp {
			j++
		}
		obs := observations[j]
		steps = append(steps, schemas.TrajectoryStep{
			Step:           act.Step,
			Action:         act,
			BIDFoundInHTML: BIDInHTML(obs.HTML, act.BID),
			ElementInfo:    act.ElementInfo,
			EventType:      act.EventType,
			EventTimestamp: act.Timestamp,
			Observation: schemas.ObservationRef{
				Timestamp:      obs.Timestamp,
				URL:            obs.URL,
				VideoTimestamp: obs.VideoTimestamp,
				HTML:           obs.HTML,
			},
		})
	}
	return steps
}

// ComputeStats derives the diagnostic ratios for a paired trajectory. The
// ratios describe instrumentation quality; thresholds are applied by the
// verification suite, not here.
func ComputeStats(totalRawEvents int, observations []schemas.RawEvent, actions []schemas.Action, steps []schemas.TrajectoryStep) schemas.PairingStats {
	stats := schemas.PairingStats{
		TotalRawEvents:    totalRawEvents,
		TotalObservations: len(observations),
		TotalKeyEvents:    len(actions),
		TotalPairs:        len(steps),
	}
	for _, s := range steps {
		if s.BIDFoundInHTML {
			stats.ValidPairs++
		}
	}
	if stats.TotalKeyEvents > 0 {
		stats.ObsEventRatioPct = float64(stats.TotalObservations) / float64(stats.TotalKeyEvents) * 100
	}
	if stats.TotalPairs > 0 {
		stats.ValidPairRatioPct = float64(stats.ValidPairs) / float64(stats.TotalPairs) * 100
		stats.MissingBIDRatioPct = 100 - stats.ValidPairRatioPct
	}
	return stats
}

// BIDInHTML reports whether an element carrying the given identifier is
// present in the serialized DOM. The document is tokenized rather than
// substring-searched so that an identifier appearing in text content or in an
// unrelated attribute does not count as a hit.
func BIDInHTML(doc, bid string) bool {
	if doc == "" || bid == "" {
		return false
	}
	// Cheap pre-filter before paying for tokenization.
	if !strings.Contains(doc, bid) {
		return false
	}

	tz := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := tz.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tz.TagAttr()
				for _, attr := range bidAttrs {
					if string(key) == attr && string(val) == bid {
						return true
					}
				}
			}
		}
	}
}
