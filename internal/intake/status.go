package intake

// Status is the lifecycle state of a queued file.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Terminal reports whether no further automatic transition occurs from s.
// An error file can still be reopened by an explicit retry.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// CanTransitionTo reports whether moving from s to next is a valid step.
// Valid transitions:
//
//	idle -> uploading
//	uploading -> processing | error
//	processing -> success | error
//	error -> idle (manual retry)
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusIdle:
		return next == StatusUploading
	case StatusUploading:
		return next == StatusProcessing || next == StatusError
	case StatusProcessing:
		return next == StatusSuccess || next == StatusError
	case StatusError:
		return next == StatusIdle
	default:
		return false
	}
}
