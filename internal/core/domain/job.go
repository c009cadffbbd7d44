package domain

import "time"

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// CollectionJob tracks one area scout run end to end.
type CollectionJob struct {
	ID             string    `json:"id"`
	Area           string    `json:"area"`
	Status         JobStatus `json:"status"`
	CollectedCount int       `json:"collected_count"`
	SavedCount     int       `json:"saved_count"`
	FailedCount    int       `json:"failed_count"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CompletedAt    time.Time `json:"completed_at,omitempty"`
}
