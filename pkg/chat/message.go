// Package chat implements the client-side orchestration engine: it turns a
// free-text submission into a sequence of transcript entries and session
// state transitions, covering immediate search results, long-running
// generation jobs with progress polling, and directly returned artifacts.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyscout/scout/pkg/api"
)

// Author identifies who produced a transcript message.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)

// MessageKind determines how a message renders and whether it may mutate.
type MessageKind string

const (
	// KindText is ordinary text, including result summaries.
	KindText MessageKind = "text"
	// KindProgressUpdate is the live status line for an active job. Its
	// text and percent mutate in place while the job runs.
	KindProgressUpdate MessageKind = "progress_update"
	// KindFileReady carries a downloadable artifact reference.
	KindFileReady MessageKind = "file_ready"
	// KindErrorNotice carries a terminal human-readable failure cause.
	KindErrorNotice MessageKind = "error_notice"
)

// Message is one entry in the transcript. ID, Author, CreatedAt and JobID
// are fixed at creation; the remaining fields mutate only through the
// session for the live progress entry of the matching job.
type Message struct {
	ID        string      `json:"id"`
	Author    Author      `json:"author"`
	Kind      MessageKind `json:"kind"`
	CreatedAt time.Time   `json:"createdAt"`
	Text      string      `json:"text"`

	// JobID correlates the message with a long-running job.
	JobID string `json:"jobId,omitempty"`

	// ProgressPercent is nil until the first progress report arrives.
	ProgressPercent *int `json:"progressPercent,omitempty"`

	// ArtifactRef is set exactly once, on terminal success.
	ArtifactRef string `json:"artifactRef,omitempty"`

	// Results and Keywords are populated for search result messages.
	Results  []api.ResultItem `json:"results,omitempty"`
	Keywords []string         `json:"keywords,omitempty"`
}

// NewUserMessage creates a plain text message authored by the user.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Author:    AuthorUser,
		Kind:      KindText,
		CreatedAt: time.Now(),
		Text:      text,
	}
}

// NewSystemMessage creates a system message of the given kind.
func NewSystemMessage(kind MessageKind, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Author:    AuthorSystem,
		Kind:      kind,
		CreatedAt: time.Now(),
		Text:      text,
	}
}

// Clone returns a deep copy safe to hand outside the session.
func (m *Message) Clone() Message {
	out := *m
	if m.ProgressPercent != nil {
		p := *m.ProgressPercent
		out.ProgressPercent = &p
	}
	if m.Results != nil {
		out.Results = make([]api.ResultItem, len(m.Results))
		copy(out.Results, m.Results)
	}
	if m.Keywords != nil {
		out.Keywords = make([]string, len(m.Keywords))
		copy(out.Keywords, m.Keywords)
	}
	return out
}
