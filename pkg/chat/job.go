package chat

import (
	"time"

	"github.com/studyscout/scout/pkg/api"
)

// JobStatus is the lifecycle state of a long-running generation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// statusFromWire maps a service status string to a JobStatus, defaulting
// unknown values to pending.
func statusFromWire(status string) JobStatus {
	switch status {
	case api.StatusProcessing:
		return JobProcessing
	case api.StatusCompleted:
		return JobCompleted
	case api.StatusFailed:
		return JobFailed
	default:
		return JobPending
	}
}

// Job tracks one server-side generation task. The advisory fields come from
// the latest poll response; elapsed time falls back to local wall clock when
// the service omits it.
type Job struct {
	ID                   string    `json:"id"`
	Status               JobStatus `json:"status"`
	ProgressPercent      int       `json:"progressPercent"`
	EstimatedSecondsLeft int       `json:"estimatedSecondsLeft"`
	ElapsedSeconds       int       `json:"elapsedSeconds"`
	Message              string    `json:"message,omitempty"`
	StartedAt            time.Time `json:"startedAt"`
}

// merge folds the advisory fields of a poll response into the job. Fields
// the service omits keep their previous value, and the progress percent
// never moves backwards while the job is active.
func (j *Job) merge(resp *api.Response) {
	j.Status = statusFromWire(resp.Status)
	if resp.Progress != nil && *resp.Progress > j.ProgressPercent {
		j.ProgressPercent = *resp.Progress
	}
	if resp.EstimatedSecondsLeft != nil {
		j.EstimatedSecondsLeft = *resp.EstimatedSecondsLeft
	}
	if resp.ElapsedSeconds != nil {
		j.ElapsedSeconds = *resp.ElapsedSeconds
	} else {
		j.ElapsedSeconds = int(time.Since(j.StartedAt).Seconds())
	}
	if resp.Message != "" {
		j.Message = resp.Message
	}
}

// Clone returns a copy safe to hand outside the session.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	return &out
}
