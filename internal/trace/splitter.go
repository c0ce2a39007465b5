package trace

import (
	"sort"

	"github.com/hmwatts/tracebench/api/schemas"
)

// Split partitions a raw event stream into page observations and interaction
// events. An event is an observation iff it is an htmlCapture; otherwise it is
// an interaction iff it carries a target. Everything else (bare focus pings,
// load markers without targets) carries no actionable information and is
// dropped.
//
// Both outputs are stably sorted by timestamp. The input order is not
// trusted: capture extensions flush buffers asynchronously, so mild
// out-of-order arrival is normal.
func Split(events []schemas.RawEvent) (observations, interactions []schemas.RawEvent) {
	for _, ev := range events {
		switch {
		case ev.IsObservation():
			observations = append(observations, ev)
		case ev.Target != nil:
			interactions = append(interactions, ev)
		}
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Timestamp < observations[j].Timestamp
	})
	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp < interactions[j].Timestamp
	})
	return observations, interactions
}
