package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
)

// SessionState is the externally observable state of the conversation.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateSearching  SessionState = "searching"
	StateJobRunning SessionState = "job_running"
	StateReady      SessionState = "ready"
	StateFailed     SessionState = "failed"
)

// Snapshot is the immutable view handed to subscribers. It shares no
// memory with the session's live state.
type Snapshot struct {
	State      SessionState `json:"state"`
	Transcript []Message    `json:"transcript"`
	Job        *Job         `json:"job,omitempty"`
}

// Options tunes session timing. Zero values fall back to the defaults
// below.
type Options struct {
	PollInterval time.Duration
	PollMinGap   time.Duration
	HardTimeout  time.Duration
}

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollMinGap   = 1500 * time.Millisecond
	DefaultHardTimeout  = 2 * time.Minute

	// initialEstimateSeconds seeds the advisory countdown before the
	// first poll response arrives.
	initialEstimateSeconds = 60
)

func (o *Options) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollMinGap <= 0 {
		o.PollMinGap = DefaultPollMinGap
	}
	if o.HardTimeout <= 0 {
		o.HardTimeout = DefaultHardTimeout
	}
}

// Session owns the transcript, the active job, and the poller, and is the
// only component that mutates them. A single mutex serializes every state
// change; goroutines resolving transport calls re-check a generation
// counter under that mutex before touching anything, so responses
// belonging to a superseded or cancelled submission are discarded instead
// of applied.
type Session struct {
	client api.Client
	opts   Options
	log    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       SessionState
	transcript  *Transcript
	job         *Job
	primary     []api.ResultItem
	community   []api.ResultItem
	poller      *Poller
	generation  uint64
	inFlight    bool
	pendingText string
	subscribers map[chan Snapshot]struct{}
	closed      bool
}

// NewSession creates an idle session backed by the given transport.
func NewSession(client api.Client, opts Options) *Session {
	opts.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		client:      client,
		opts:        opts,
		log:         logging.NewLogger("session"),
		ctx:         ctx,
		cancel:      cancel,
		state:       StateIdle,
		transcript:  NewTranscript(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// UpdateOptions replaces the poll tunables. The new values apply from the
// next accepted submission; a running poller keeps the values it started
// with.
func (s *Session) UpdateOptions(opts Options) {
	opts.setDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.opts = opts
}

// SourceResults returns copies of the per-source lists behind the most
// recent search outcome, before merging.
func (s *Session) SourceResults() (primary, community []api.ResultItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	primary = append([]api.ResultItem(nil), s.primary...)
	community = append([]api.ResultItem(nil), s.community...)
	return primary, community
}

// Snapshot returns an immutable copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:      s.state,
		Transcript: s.transcript.Snapshot(),
		Job:        s.job.Clone(),
	}
}

// Subscribe registers a state listener. The current snapshot is queued
// immediately, then one snapshot per change. Slow subscribers miss updates
// rather than stall the session.
func (s *Session) Subscribe() chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 16)
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Session) Unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Submit starts the submit, classify, then poll-or-finish flow for text.
// It returns once the user message is in the transcript; the response is
// handled asynchronously. Duplicate submissions are suppressed: while a
// transport call is in flight every submission is ignored, and while any
// submission is pending the exact same raw text is ignored. A different
// text during a running job supersedes that job.
func (s *Session) Submit(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.inFlight {
		s.log.Debug("Submission ignored, request already in flight")
		return
	}
	if s.pendingText != "" && text == s.pendingText {
		s.log.Debug("Duplicate submission suppressed")
		return
	}

	if s.poller != nil {
		s.poller.Cancel()
		s.poller = nil
	}
	s.generation++
	gen := s.generation
	s.inFlight = true
	s.pendingText = text
	s.job = nil

	s.transcript.Append(NewUserMessage(text))
	s.state = StateSearching
	s.broadcastLocked()

	go s.dispatch(gen, text)
}

// dispatch resolves one accepted submission off the session lock.
func (s *Session) dispatch(gen uint64, text string) {
	resp, err := s.client.SubmitQuery(s.ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		s.log.Debug("Discarding response for superseded submission")
		return
	}
	s.inFlight = false

	if err != nil {
		s.failLocked(err)
		return
	}

	outcome, err := Classify(resp)
	if err != nil {
		s.failLocked(err)
		return
	}

	switch outcome.Kind {
	case OutcomeSearchResult:
		s.applyResultsLocked(outcome)
	case OutcomeDirectArtifact:
		s.applyArtifactLocked("", outcome.ArtifactRef)
	case OutcomeJobDone:
		s.applyArtifactLocked(outcome.JobID, outcome.ArtifactRef)
	case OutcomeJobStarted:
		s.startJobLocked(gen, outcome)
	}
}

func (s *Session) applyResultsLocked(outcome *Outcome) {
	msg := NewSystemMessage(KindText, resultsSummary(len(outcome.Items)))
	msg.Results = outcome.Items
	msg.Keywords = outcome.Keywords
	s.transcript.Append(msg)
	s.primary = outcome.Primary
	s.community = outcome.Community
	s.settleLocked(StateReady)
}

func (s *Session) applyArtifactLocked(jobID, ref string) {
	msg := NewSystemMessage(KindFileReady, "Your document is ready.")
	msg.JobID = jobID
	msg.ArtifactRef = ref
	s.transcript.Append(msg)
	s.settleLocked(StateReady)
}

func (s *Session) startJobLocked(gen uint64, outcome *Outcome) {
	text := outcome.Message
	if text == "" {
		text = "Working on your document..."
	}
	msg := NewSystemMessage(KindProgressUpdate, text)
	msg.JobID = outcome.JobID
	s.transcript.Append(msg)

	s.job = &Job{
		ID:                   outcome.JobID,
		Status:               JobPending,
		EstimatedSecondsLeft: initialEstimateSeconds,
		Message:              text,
		StartedAt:            time.Now(),
	}
	s.state = StateJobRunning

	poller := NewPoller(s.client, outcome.JobID, PollerOptions{
		Interval:    s.opts.PollInterval,
		MinGap:      s.opts.PollMinGap,
		HardTimeout: s.opts.HardTimeout,
	}, func(resp *api.Response) {
		s.handleProgress(gen, resp)
	}, func(ev TerminalEvent) {
		s.handleTerminal(gen, ev)
	})
	s.poller = poller
	poller.Start(s.ctx)

	s.broadcastLocked()
}

// handleProgress merges a non-terminal poll response into the job and its
// live transcript entry.
func (s *Session) handleProgress(gen uint64, resp *api.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed || s.job == nil {
		return
	}

	s.job.merge(resp)
	s.transcript.MutateByJobID(s.job.ID, func(m *Message) {
		if s.job.Message != "" {
			m.Text = s.job.Message
		}
		p := s.job.ProgressPercent
		m.ProgressPercent = &p
	})
	s.broadcastLocked()
}

// handleTerminal resolves the active job when its poller stops.
func (s *Session) handleTerminal(gen uint64, ev TerminalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		s.log.Debug("Discarding terminal event for superseded job")
		return
	}

	s.poller = nil

	switch ev.State {
	case PollerCompleted:
		s.transcript.MutateByJobID(ev.JobID, func(m *Message) {
			m.Kind = KindFileReady
			m.Text = "Your document is ready."
			m.ArtifactRef = ev.ArtifactRef
			full := 100
			m.ProgressPercent = &full
		})
		s.job = nil
		s.settleLocked(StateReady)

	case PollerFailed, PollerTimedOut:
		s.transcript.MutateByJobID(ev.JobID, func(m *Message) {
			m.Kind = KindErrorNotice
			m.Text = userFacingError(ev.Err)
		})
		s.job = nil
		s.settleLocked(StateFailed)
	}
}

// failLocked records a terminal submission failure. Exactly one error
// notice is appended per failure.
func (s *Session) failLocked(err error) {
	s.transcript.Append(NewSystemMessage(KindErrorNotice, userFacingError(err)))
	s.settleLocked(StateFailed)
}

// settleLocked moves the session to a terminal display state and allows
// the pending text to be submitted again.
func (s *Session) settleLocked(state SessionState) {
	s.state = state
	s.pendingText = ""
	s.broadcastLocked()
}

// CancelActiveJob stops the running poller, if any, without touching its
// progress message. The transcript keeps whatever progress was recorded.
func (s *Session) CancelActiveJob() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller == nil {
		return
	}
	s.poller.Cancel()
	s.poller = nil
	s.job = nil
	s.generation++
	s.settleLocked(StateReady)
	s.log.Debug("Active job cancelled")
}

// Reset clears the transcript and returns the session to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller != nil {
		s.poller.Cancel()
		s.poller = nil
	}
	s.generation++
	s.inFlight = false
	s.pendingText = ""
	s.job = nil
	s.primary = nil
	s.community = nil
	s.transcript.Clear()
	s.state = StateIdle
	s.broadcastLocked()
}

// Close cancels any active poller and in-flight request and closes all
// subscriber channels. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.poller != nil {
		s.poller.Cancel()
		s.poller = nil
	}
	s.generation++
	s.cancel()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Snapshot]struct{})
}

func resultsSummary(count int) string {
	if count == 0 {
		return "No matching results were found. Try rephrasing your query."
	}
	if count == 1 {
		return "Found 1 result."
	}
	return fmt.Sprintf("Found %d results.", count)
}

// userFacingError turns an internal error into the transcript-facing cause
// line, distinguishing connectivity problems from slow or failing servers.
func userFacingError(err error) string {
	if err == nil {
		return "Something went wrong. Please try again."
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNetworkUnavailable:
		return "Could not reach the service. Check your connection and try again."
	case errors.ErrCodeRequestTimeout:
		return "The service is taking too long to respond. Please try again."
	case errors.ErrCodeHardTimeout:
		return "Document generation timed out. Please try again."
	case errors.ErrCodeRemoteFailure, errors.ErrCodeClassification, errors.ErrCodeRemoteStatus:
		if se, ok := err.(*errors.ScoutError); ok && se.Message != "" {
			return se.Message
		}
	}
	return err.Error()
}
