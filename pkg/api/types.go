// Package api defines the wire contract with the search/generation service
// and provides the HTTP transport implementation.
package api

// Canonical response discriminants. The service historically emitted two
// divergent schemes ("search"/"exam"/"exam_progress"/"exam_download", and a
// variant where "exam" carried a status field); those are accepted on input
// and normalized by the classifier, but never produced.
const (
	KindResults  = "results"
	KindJob      = "job"
	KindArtifact = "artifact"

	// Legacy discriminants, still accepted.
	LegacyKindSearch       = "search"
	LegacyKindExam         = "exam"
	LegacyKindExamProgress = "exam_progress"
	LegacyKindExamDownload = "exam_download"
)

// Job status values reported by the service.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ResultItem is one scored search hit. Ranking happens server-side; clients
// only merge and sort already-scored items.
type ResultItem struct {
	ID             string  `json:"id,omitempty"`
	Title          string  `json:"title"`
	Content        string  `json:"content,omitempty"`
	URL            string  `json:"url,omitempty"`
	Source         string  `json:"source,omitempty"`
	Timestamp      string  `json:"timestamp,omitempty"`
	CommentCount   int     `json:"commentCount,omitempty"`
	RelevanceScore float64 `json:"relevanceScore,omitempty"`
}

// Response is the decoded body of a submit or poll call. It is a superset of
// every shape the service emits; the classifier decides what a given instance
// means. Pointer fields distinguish "omitted" from zero so poll merges can
// retain previous values.
type Response struct {
	Kind   string `json:"type,omitempty"`
	JobID  string `json:"jobId,omitempty"`
	Status string `json:"status,omitempty"`

	// Search payload. Two source lists; scores are comparable across both.
	Keywords         []string     `json:"keywords,omitempty"`
	PrimaryResults   []ResultItem `json:"primaryResults,omitempty"`
	CommunityResults []ResultItem `json:"communityResults,omitempty"`

	// Job progress payload.
	Progress             *int   `json:"progress,omitempty"`
	Message              string `json:"message,omitempty"`
	EstimatedSecondsLeft *int   `json:"estimatedSecondsLeft,omitempty"`
	ElapsedSeconds       *int   `json:"elapsedTimeSeconds,omitempty"`
	Error                string `json:"error,omitempty"`

	// Artifact payload.
	ArtifactRef string `json:"artifactRef,omitempty"`

	// Legacy field names, mapped by the classifier.
	LegacyRequestID       string       `json:"requestId,omitempty"`
	LegacyDownloadURL     string       `json:"downloadUrl,omitempty"`
	LegacyExamDownloadURL string       `json:"examDownloadUrl,omitempty"`
	LegacyOrbiResults     []ResultItem `json:"orbiResults,omitempty"`
	LegacySumanwhiResults []ResultItem `json:"sumanwhiResults,omitempty"`
}

// JobIDOrLegacy returns the job correlation id regardless of which field
// name the service used.
func (r *Response) JobIDOrLegacy() string {
	if r.JobID != "" {
		return r.JobID
	}
	return r.LegacyRequestID
}

// ArtifactRefOrLegacy returns the artifact reference regardless of which
// field name the service used.
func (r *Response) ArtifactRefOrLegacy() string {
	if r.ArtifactRef != "" {
		return r.ArtifactRef
	}
	if r.LegacyDownloadURL != "" {
		return r.LegacyDownloadURL
	}
	return r.LegacyExamDownloadURL
}

// PrimaryOrLegacy returns the primary source result list.
func (r *Response) PrimaryOrLegacy() []ResultItem {
	if r.PrimaryResults != nil {
		return r.PrimaryResults
	}
	return r.LegacyOrbiResults
}

// CommunityOrLegacy returns the community source result list.
func (r *Response) CommunityOrLegacy() []ResultItem {
	if r.CommunityResults != nil {
		return r.CommunityResults
	}
	return r.LegacySumanwhiResults
}

// HasResults reports whether the response carries any result list, even an
// empty one (an empty list is a valid "no results" answer, not a
// classification error).
func (r *Response) HasResults() bool {
	return r.PrimaryResults != nil || r.CommunityResults != nil ||
		r.LegacyOrbiResults != nil || r.LegacySumanwhiResults != nil
}

// TerminalStatus reports whether status is one from which no further
// transition occurs.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
