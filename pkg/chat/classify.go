package chat

import (
	"fmt"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/pkg/api"
)

// OutcomeKind is the classified meaning of a submission response.
type OutcomeKind int

const (
	// OutcomeSearchResult carries ranked items from one or two sources.
	OutcomeSearchResult OutcomeKind = iota
	// OutcomeJobStarted means the service accepted a long-running job
	// that must be polled.
	OutcomeJobStarted
	// OutcomeJobDone means the job resolved within the submission call
	// and the artifact is already available.
	OutcomeJobDone
	// OutcomeDirectArtifact means the response itself was the artifact.
	OutcomeDirectArtifact
)

// Outcome is the normalized result of classifying a raw response. Items
// holds the merged ranking; Primary and Community keep the per-source
// lists for callers that need them separately.
type Outcome struct {
	Kind        OutcomeKind
	JobID       string
	Message     string
	ArtifactRef string
	Items       []api.ResultItem
	Primary     []api.ResultItem
	Community   []api.ResultItem
	Keywords    []string
}

// Classify maps a raw response to an outcome variant. It is a pure
// function with no side effects. The service historically used two field
// naming schemes; both are accepted here and nowhere else. Responses
// matching no variant return a classification error, never a silent drop.
func Classify(resp *api.Response) (*Outcome, error) {
	if resp == nil {
		return nil, errors.ClassificationFailed("empty response")
	}

	switch resp.Kind {
	case api.KindResults, api.LegacyKindSearch:
		return resultsOutcome(resp), nil

	case api.KindArtifact, api.LegacyKindExamDownload:
		ref := resp.ArtifactRefOrLegacy()
		if ref == "" {
			return nil, errors.ClassificationFailed("artifact response without a reference")
		}
		return &Outcome{Kind: OutcomeDirectArtifact, ArtifactRef: ref}, nil

	case api.KindJob, api.LegacyKindExam, api.LegacyKindExamProgress:
		return classifyJob(resp)

	case "":
		return classifyUntyped(resp)
	}

	return nil, errors.ClassificationFailed(fmt.Sprintf("unrecognized response type %q", resp.Kind))
}

func resultsOutcome(resp *api.Response) *Outcome {
	primary := resp.PrimaryOrLegacy()
	community := resp.CommunityOrLegacy()
	return &Outcome{
		Kind:      OutcomeSearchResult,
		Items:     MergeResults(primary, community),
		Primary:   primary,
		Community: community,
		Keywords:  resp.Keywords,
	}
}

func classifyJob(resp *api.Response) (*Outcome, error) {
	jobID := resp.JobIDOrLegacy()
	if jobID == "" {
		return nil, errors.ClassificationFailed("job response without a job id")
	}
	if ref := resp.ArtifactRefOrLegacy(); ref != "" {
		return &Outcome{Kind: OutcomeJobDone, JobID: jobID, ArtifactRef: ref}, nil
	}
	switch resp.Status {
	case api.StatusCompleted:
		return nil, errors.ClassificationFailed("completed job without an artifact reference")
	case api.StatusFailed:
		reason := resp.Error
		if reason == "" {
			reason = resp.Message
		}
		return nil, errors.JobFailed(jobID, reason)
	}
	return &Outcome{Kind: OutcomeJobStarted, JobID: jobID, Message: resp.Message}, nil
}

// classifyUntyped handles responses with no discriminant at all, inferred
// from which payload fields are present.
func classifyUntyped(resp *api.Response) (*Outcome, error) {
	if resp.HasResults() {
		return resultsOutcome(resp), nil
	}
	if resp.JobIDOrLegacy() != "" {
		return classifyJob(resp)
	}
	if ref := resp.ArtifactRefOrLegacy(); ref != "" {
		return &Outcome{Kind: OutcomeDirectArtifact, ArtifactRef: ref}, nil
	}
	return nil, errors.ClassificationFailed("response matched no known shape")
}
