package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/pkg/api"
)

func TestPollerReachesCompleted(t *testing.T) {
	var polls int32
	client := &stubClient{
		pollFn: func(jobID string) (*api.Response, error) {
			if atomic.AddInt32(&polls, 1) < 3 {
				p := 40
				return &api.Response{Status: api.StatusProcessing, Progress: &p}, nil
			}
			return &api.Response{Status: api.StatusCompleted, ArtifactRef: "R1"}, nil
		},
	}

	var progress int32
	terminal := make(chan TerminalEvent, 1)
	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      5 * time.Millisecond,
		HardTimeout: time.Second,
	}, func(resp *api.Response) {
		atomic.AddInt32(&progress, 1)
	}, func(ev TerminalEvent) {
		terminal <- ev
	})
	p.Start(context.Background())

	select {
	case ev := <-terminal:
		assert.Equal(t, PollerCompleted, ev.State)
		assert.Equal(t, "R1", ev.ArtifactRef)
	case <-time.After(time.Second):
		t.Fatal("poller never completed")
	}
	assert.Equal(t, PollerCompleted, p.State())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&progress), int32(1))
}

func TestPollerHardTimeout(t *testing.T) {
	client := &stubClient{} // always Processing

	terminal := make(chan TerminalEvent, 1)
	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      5 * time.Millisecond,
		HardTimeout: 80 * time.Millisecond,
	}, func(resp *api.Response) {}, func(ev TerminalEvent) {
		terminal <- ev
	})
	p.Start(context.Background())

	select {
	case ev := <-terminal:
		assert.Equal(t, PollerTimedOut, ev.State)
		assert.Equal(t, errors.ErrCodeHardTimeout, errors.GetCode(ev.Err))
	case <-time.After(time.Second):
		t.Fatal("hard timeout never fired")
	}
}

func TestPollerCompletedWithoutRefFails(t *testing.T) {
	client := &stubClient{
		pollFn: func(jobID string) (*api.Response, error) {
			return &api.Response{Status: api.StatusCompleted}, nil
		},
	}

	terminal := make(chan TerminalEvent, 1)
	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      5 * time.Millisecond,
		HardTimeout: time.Second,
	}, func(resp *api.Response) {}, func(ev TerminalEvent) {
		terminal <- ev
	})
	p.Start(context.Background())

	select {
	case ev := <-terminal:
		assert.Equal(t, PollerFailed, ev.State)
		assert.Equal(t, errors.ErrCodeClassification, errors.GetCode(ev.Err))
	case <-time.After(time.Second):
		t.Fatal("poller never failed")
	}
}

func TestPollerMinGapSkipsTicks(t *testing.T) {
	client := &stubClient{}

	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      45 * time.Millisecond,
		HardTimeout: time.Second,
	}, func(resp *api.Response) {}, func(ev TerminalEvent) {})
	p.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	p.Cancel()

	// Ticks fire every 10ms but the gap admits at most one attempt per
	// 45ms window.
	calls := client.PollCalls()
	assert.GreaterOrEqual(t, calls, 2)
	assert.Less(t, calls, 10)
}

func TestPollerCancelDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	client := &stubClient{
		pollFn: func(jobID string) (*api.Response, error) {
			<-release
			return &api.Response{Status: api.StatusCompleted, ArtifactRef: "stale"}, nil
		},
	}

	var mu sync.Mutex
	var events []TerminalEvent
	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      5 * time.Millisecond,
		HardTimeout: time.Second,
	}, func(resp *api.Response) {
		t.Error("progress callback after cancel")
	}, func(ev TerminalEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	p.Start(context.Background())

	waitFor(t, time.Second, func() bool { return client.PollCalls() >= 1 })
	p.Cancel()
	close(release)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, events, "stale completed response must be discarded")
	assert.Equal(t, PollerCancelled, p.State())
}

func TestPollerTransportErrorIsTerminal(t *testing.T) {
	client := &stubClient{
		pollFn: func(jobID string) (*api.Response, error) {
			return nil, errors.NetworkUnavailable("/progress/J1", assert.AnError)
		},
	}

	terminal := make(chan TerminalEvent, 1)
	p := NewPoller(client, "J1", PollerOptions{
		Interval:    10 * time.Millisecond,
		MinGap:      5 * time.Millisecond,
		HardTimeout: time.Second,
	}, func(resp *api.Response) {}, func(ev TerminalEvent) {
		terminal <- ev
	})
	p.Start(context.Background())

	select {
	case ev := <-terminal:
		assert.Equal(t, PollerFailed, ev.State)
		assert.Equal(t, errors.ErrCodeNetworkUnavailable, errors.GetCode(ev.Err))
	case <-time.After(time.Second):
		t.Fatal("poller never failed")
	}
	// One failed poll ends the job; no retries follow.
	calls := client.PollCalls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, client.PollCalls())
}
