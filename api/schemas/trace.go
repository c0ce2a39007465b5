package schemas

// EventType tags a raw captured browser occurrence.
type EventType string

const (
	EventClick       EventType = "click"
	EventDblClick    EventType = "dblclick"
	EventInput       EventType = "input"
	EventChange      EventType = "change"
	EventSubmit      EventType = "submit"
	EventFocus       EventType = "focus"
	EventBlur        EventType = "blur"
	EventKeyDown     EventType = "keydown"
	EventKeyUp       EventType = "keyup"
	EventKeyPress    EventType = "keypress"
	EventPointerDown EventType = "pointerdown"
	EventPointerUp   EventType = "pointerup"
	EventMouseDown   EventType = "mousedown"
	EventMouseUp     EventType = "mouseup"
	EventScroll      EventType = "scroll"
	EventHTMLCapture EventType = "htmlCapture"
	EventLoad        EventType = "load"
	EventUnload      EventType = "unload"
)

// ValidEventTypes is the closed vocabulary produced by the recording
// extension. The verifier treats anything outside it as schema noise.
var ValidEventTypes = map[EventType]bool{
	EventClick: true, EventDblClick: true, EventInput: true, EventChange: true,
	EventSubmit: true, EventFocus: true, EventBlur: true,
	EventKeyDown: true, EventKeyUp: true, EventKeyPress: true,
	EventPointerDown: true, EventPointerUp: true,
	EventMouseDown: true, EventMouseUp: true, EventScroll: true,
	EventHTMLCapture: true, EventLoad: true, EventUnload: true,
}

// A11y carries the accessibility metadata snapshotted for an event target.
type A11y struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Target describes the DOM element an interaction event fired on. BID is the
// stable per-element identifier injected by the instrumentation; it is the
// only safe cross-reference key between an event and an HTML snapshot.
type Target struct {
	BID   string `json:"bid"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
	A11y  A11y   `json:"a11y"`
}

// RawEvent is one captured browser occurrence. Interaction events carry a
// Target; htmlCapture events carry the serialized DOM instead. Timestamps are
// milliseconds since capture start and are not guaranteed strictly
// increasing.
type RawEvent struct {
	Type           EventType `json:"type"`
	Timestamp      float64   `json:"timestamp"`
	Target         *Target   `json:"target,omitempty"`
	Data           string    `json:"data,omitempty"`
	URL            string    `json:"url,omitempty"`
	HTML           string    `json:"html,omitempty"`
	VideoTimestamp float64   `json:"video_timestamp,omitempty"`
}

// IsObservation reports whether the event is a full-page snapshot.
func (e *RawEvent) IsObservation() bool { return e.Type == EventHTMLCapture }

// Trace is the raw, timestamped recording of one human demonstration session.
type Trace struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	StartURL        string     `json:"startUrl"`
	EndURL          string     `json:"endUrl"`
	DurationSeconds float64    `json:"durationSeconds"`
	Events          []RawEvent `json:"events"`
}
