package schemas

// ActionKind is the closed set of discrete UI actions a reduced event maps to.
type ActionKind string

const (
	ActionClick        ActionKind = "click"
	ActionFill         ActionKind = "fill"
	ActionSelectOption ActionKind = "select_option"
	ActionScroll       ActionKind = "scroll"
	ActionNoop         ActionKind = "noop"
	ActionHover        ActionKind = "hover"
)

// ValidActionKinds covers everything the benchmark environment accepts,
// including the neutral kinds an agent may emit that the reducer never does.
var ValidActionKinds = map[ActionKind]bool{
	ActionClick: true, ActionFill: true, ActionSelectOption: true,
	ActionScroll: true, ActionNoop: true, ActionHover: true,
}

// ElementInfo is the accessibility snapshot attached to a normalized action.
// Missing fields default to empty strings, never nil.
type ElementInfo struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	TagName string `json:"tagName"`
}

// Action is one normalized UI action. Step is assigned as the 1-based output
// index by the normalizer, never carried over from input, so the multiset of
// step values in any actions file is exactly {1..N}.
type Action struct {
	Step        int         `json:"step"`
	Kind        ActionKind  `json:"action"`
	BID         string      `json:"data_bid"`
	Value       string      `json:"value,omitempty"`
	Option      string      `json:"option,omitempty"`
	EventType   EventType   `json:"event_type,omitempty"`
	Timestamp   float64     `json:"timestamp,omitempty"`
	URL         string      `json:"url,omitempty"`
	ElementInfo ElementInfo `json:"element_info"`
}

// ActionsFile is the reduced-actions artifact written by the processing
// pipeline and consumed by prompt generation, replay and verification.
type ActionsFile struct {
	TaskID          string   `json:"task_id"`
	TaskTitle       string   `json:"task_title"`
	StartURL        string   `json:"start_url"`
	EndURL          string   `json:"end_url"`
	DurationSeconds float64  `json:"duration_seconds"`
	TotalActions    int      `json:"total_actions"`
	Actions         []Action `json:"actions"`
}

// ObservationRef references the snapshot paired with an action. Exactly one
// of HTML / HTMLLength is populated depending on whether the trajectory was
// written inline or slimmed.
type ObservationRef struct {
	Timestamp      float64 `json:"timestamp"`
	URL            string  `json:"url"`
	VideoTimestamp float64 `json:"video_timestamp,omitempty"`
	HTML           string  `json:"html,omitempty"`
	HTMLLength     int     `json:"html_length,omitempty"`
}

// TrajectoryStep pairs one action with the page state that preceded it.
type TrajectoryStep struct {
	Step           int            `json:"step"`
	Action         Action         `json:"action"`
	BIDFoundInHTML bool           `json:"bid_found_in_html"`
	ElementInfo    ElementInfo    `json:"element_info"`
	EventType      EventType      `json:"event_type"`
	EventTimestamp float64        `json:"event_timestamp"`
	Observation    ObservationRef `json:"observation"`
}

// PairingStats are the diagnostic ratios computed after observation pairing.
// They describe instrumentation quality; the verifier applies thresholds.
type PairingStats struct {
	TotalRawEvents     int     `json:"total_raw_events"`
	TotalObservations  int     `json:"total_observations"`
	TotalKeyEvents     int     `json:"total_key_events"`
	TotalPairs         int     `json:"total_pairs"`
	ValidPairs         int     `json:"valid_pairs"`
	ObsEventRatioPct   float64 `json:"obs_event_ratio_pct"`
	ValidPairRatioPct  float64 `json:"valid_pair_ratio_pct"`
	MissingBIDRatioPct float64 `json:"missing_bid_ratio_pct"`
}

// PairedTrajectory is the paired-trajectory artifact.
type PairedTrajectory struct {
	TaskID          string           `json:"task_id"`
	TaskTitle       string           `json:"task_title"`
	StartURL        string           `json:"start_url"`
	EndURL          string           `json:"end_url"`
	DurationSeconds float64          `json:"duration_seconds"`
	Stats           PairingStats     `json:"stats"`
	Trajectory      []TrajectoryStep `json:"trajectory"`
}
