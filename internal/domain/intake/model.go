package intake

// Submission is a parsed intake payload ready to relay to the pipeline.
type Submission struct {
	Kind      string // activity.KindText or activity.KindAudio
	PatientID string
	Text      string
	Filename  string
	MimeType  string
	Audio     []byte
}

// Outcome classes for a completed pipeline round trip.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
)

// Outcome is the tagged result of one intake attempt. Exactly one of the
// three classes applies; Status, ContentType and Body carry the upstream
// passthrough for rejected and successful calls.
type Outcome struct {
	Class       string
	Status      int
	ContentType string
	Body        []byte
	SessionID   string
	Message     string
}
