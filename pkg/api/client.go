package api

import "context"

// Client is the transport used by the chat session. Implementations must be
// safe for concurrent use; the session issues polls from its own goroutines.
type Client interface {
	// SubmitQuery sends free-form text and returns the decoded response.
	// Responses may be search results, a job acknowledgement, or a direct
	// artifact; classification is the caller's concern.
	SubmitQuery(ctx context.Context, text string) (*Response, error)

	// PollJob fetches the current progress of a long-running job.
	PollJob(ctx context.Context, jobID string) (*Response, error)

	// FetchArtifact downloads the artifact behind ref and returns its bytes.
	FetchArtifact(ctx context.Context, ref string) ([]byte, error)
}
