package domain

import "time"

// Status enumerates the try-on job lifecycle states.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether a job in this status will never change again.
// Canceled is set by an external collaborator, never by this service, but
// must still stop any status watcher.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCanceled:
		return true
	}
	return false
}

// TryOnJob is the persistent record of one virtual try-on request. It is
// created by the client at upload time with StatusNew and mutated only by
// the orchestrator afterwards.
type TryOnJob struct {
	ID              string
	ImageURLs       []string
	ProductID       string
	Status          Status
	ResultImageURLs []string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SourceImageURL returns the user photo the pipeline works from, or ""
// when the job carries no usable source image.
func (j *TryOnJob) SourceImageURL() string {
	if len(j.ImageURLs) == 0 {
		return ""
	}
	return j.ImageURLs[0]
}
