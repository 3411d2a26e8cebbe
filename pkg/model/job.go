package model

// JobStatus represents the state of a merge job.
type JobStatus int

const (
	JobStatusPending   JobStatus = 0 // Created, sources still arriving
	JobStatusRunning   JobStatus = 1 // Sources stored, merge in progress
	JobStatusCompleted JobStatus = 2 // Merged profile stored
	JobStatusFailed    JobStatus = 3 // Merge failed
)

// String returns the string representation of JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
