package osmix

import "time"

// Severity classifies a ProgressEvent.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityReady Severity = "ready"
	SeverityError Severity = "error"
	SeverityDebug Severity = "debug"
)

// ProgressEvent is emitted to a ProgressListener when BuildIndexes and
// BuildSpatialIndexes complete.
type ProgressEvent struct {
	Kind      string
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// ProgressListener receives ProgressEvents. Implementations must not block
// the caller for long; slow consumers should buffer internally.
type ProgressListener func(ProgressEvent)

func emit(l ProgressListener, kind, message string, sev Severity) {
	if l == nil {
		return
	}
	l(ProgressEvent{Kind: kind, Message: message, Severity: sev, Timestamp: time.Now()})
}
