package schemas

// RecordingUpload is the payload the recording extension posts when a
// demonstration finishes. Data carries the raw event stream in recording
// order; EventsRecorded is the extension's own count and may disagree with
// len(Data) when events were dropped in flight.
type RecordingUpload struct {
	Task           string     `json:"task"`
	Duration       float64    `json:"duration"`
	EventsRecorded int        `json:"events_recorded"`
	StartURL       string     `json:"start_url,omitempty"`
	EndURL         string     `json:"end_url,omitempty"`
	Data           []RawEvent `json:"data"`
	VideoLocalPath string     `json:"video_local_path,omitempty"`
}

// Trace converts an accepted upload into the trace artifact the processing
// pipeline consumes, under the given recording id.
func (u *RecordingUpload) Trace(id string) Trace {
	return Trace{
		ID:              id,
		Title:           u.Task,
		StartURL:        u.StartURL,
		EndURL:          u.EndURL,
		DurationSeconds: u.Duration,
		Events:          u.Data,
	}
}
