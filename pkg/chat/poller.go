package chat

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
)

// PollerState is the lifecycle state of a Poller. Every state except
// PollerIdle and PollerActive is terminal.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerActive
	PollerCompleted
	PollerFailed
	PollerTimedOut
	PollerCancelled
)

func (s PollerState) String() string {
	switch s {
	case PollerIdle:
		return "idle"
	case PollerActive:
		return "active"
	case PollerCompleted:
		return "completed"
	case PollerFailed:
		return "failed"
	case PollerTimedOut:
		return "timed_out"
	case PollerCancelled:
		return "cancelled"
	}
	return "unknown"
}

// TerminalEvent reports why a poller stopped on its own. Cancelled pollers
// emit no event; the canceller already knows.
type TerminalEvent struct {
	JobID       string
	State       PollerState
	ArtifactRef string
	Response    *api.Response
	Err         error
}

// PollerOptions tunes the polling cadence and budget.
type PollerOptions struct {
	// Interval between scheduled polls.
	Interval time.Duration
	// MinGap is the minimum elapsed time since the previous poll attempt.
	// A tick arriving earlier is skipped, not queued.
	MinGap time.Duration
	// HardTimeout bounds the whole job from Start, regardless of how
	// individual polls go.
	HardTimeout time.Duration
}

// Poller owns the polling lifecycle for a single job id: the recurring
// schedule, the minimum-gap throttle, terminal-status detection, the hard
// timeout, and cancellation. Progress and terminal outcomes are delivered
// through the two callbacks. Cancellation stops both timers before
// returning; callers that need to discard a response already in flight at
// cancel time guard their callbacks with their own liveness token.
type Poller struct {
	jobID  string
	client api.Client
	opts   PollerOptions
	log    *logrus.Entry

	onProgress func(*api.Response)
	onTerminal func(TerminalEvent)

	mu          sync.Mutex
	state       PollerState
	lastAttempt time.Time
	stop        chan struct{}
}

// NewPoller creates an idle poller for jobID. onProgress fires for each
// non-terminal poll response; onTerminal fires exactly once unless the
// poller is cancelled first.
func NewPoller(client api.Client, jobID string, opts PollerOptions, onProgress func(*api.Response), onTerminal func(TerminalEvent)) *Poller {
	return &Poller{
		jobID:      jobID,
		client:     client,
		opts:       opts,
		log:        logging.NewLogger("poller").WithField("jobId", jobID),
		onProgress: onProgress,
		onTerminal: onTerminal,
		state:      PollerIdle,
		stop:       make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start transitions the poller to active, performs one immediate poll, and
// keeps polling on the configured interval until a terminal status, the
// hard timeout, cancellation, or context cancellation.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.state != PollerIdle {
		p.mu.Unlock()
		return
	}
	p.state = PollerActive
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.opts.HardTimeout)
	defer deadline.Stop()

	p.attempt(ctx)

	for {
		select {
		case <-ticker.C:
			p.attempt(ctx)
		case <-deadline.C:
			p.expire()
			return
		case <-p.stop:
			return
		case <-ctx.Done():
			p.Cancel()
			return
		}
	}
}

// attempt performs one poll unless the minimum gap since the previous
// attempt has not elapsed yet. The gap is measured from attempt to attempt,
// not response to response, so a slow transport cannot cause overlapping
// bursts.
func (p *Poller) attempt(ctx context.Context) {
	p.mu.Lock()
	if p.state != PollerActive {
		p.mu.Unlock()
		return
	}
	if !p.lastAttempt.IsZero() && time.Since(p.lastAttempt) < p.opts.MinGap {
		p.mu.Unlock()
		p.log.Debug("Skipping poll, minimum gap not elapsed")
		return
	}
	p.lastAttempt = time.Now()
	p.mu.Unlock()

	resp, err := p.client.PollJob(ctx, p.jobID)
	if err != nil {
		p.finish(PollerFailed, TerminalEvent{JobID: p.jobID, State: PollerFailed, Err: err})
		return
	}
	p.dispatch(resp)
}

func (p *Poller) dispatch(resp *api.Response) {
	switch resp.Status {
	case api.StatusCompleted:
		ref := resp.ArtifactRefOrLegacy()
		if ref == "" {
			p.finish(PollerFailed, TerminalEvent{
				JobID: p.jobID,
				State: PollerFailed,
				Err:   errors.ClassificationFailed("completed job without an artifact reference"),
			})
			return
		}
		p.finish(PollerCompleted, TerminalEvent{
			JobID:       p.jobID,
			State:       PollerCompleted,
			ArtifactRef: ref,
			Response:    resp,
		})

	case api.StatusFailed:
		reason := resp.Error
		if reason == "" {
			reason = resp.Message
		}
		p.finish(PollerFailed, TerminalEvent{
			JobID:    p.jobID,
			State:    PollerFailed,
			Response: resp,
			Err:      errors.JobFailed(p.jobID, reason),
		})

	default:
		// Still pending or processing. Drop the response if a terminal
		// transition won the race while the poll was in flight.
		p.mu.Lock()
		if p.state != PollerActive {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		p.onProgress(resp)
	}
}

// finish moves the poller to a terminal state and emits the event. Only the
// first terminal transition wins; late poll responses after cancellation or
// timeout are discarded here.
func (p *Poller) finish(state PollerState, ev TerminalEvent) {
	p.mu.Lock()
	if p.state != PollerActive {
		p.mu.Unlock()
		return
	}
	p.state = state
	close(p.stop)
	p.mu.Unlock()

	p.log.WithField("state", state.String()).Debug("Poller finished")
	p.onTerminal(ev)
}

func (p *Poller) expire() {
	p.finish(PollerTimedOut, TerminalEvent{
		JobID: p.jobID,
		State: PollerTimedOut,
		Err:   errors.HardTimeout(p.jobID, p.opts.HardTimeout.String()),
	})
}

// Cancel stops the recurring schedule and the hard-timeout countdown and
// returns after the poller can no longer mutate anything. No terminal event
// is emitted, and any in-flight poll response is discarded on arrival.
func (p *Poller) Cancel() {
	p.mu.Lock()
	if p.state != PollerActive && p.state != PollerIdle {
		p.mu.Unlock()
		return
	}
	wasActive := p.state == PollerActive
	p.state = PollerCancelled
	if wasActive {
		close(p.stop)
	}
	p.mu.Unlock()

	p.log.Debug("Poller cancelled")
}
