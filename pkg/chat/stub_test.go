package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/studyscout/scout/pkg/api"
)

// stubClient is a scriptable transport for tests.
type stubClient struct {
	mu          sync.Mutex
	submitCalls int
	pollCalls   int

	submitFn func(text string) (*api.Response, error)
	pollFn   func(jobID string) (*api.Response, error)
}

func (c *stubClient) SubmitQuery(ctx context.Context, text string) (*api.Response, error) {
	c.mu.Lock()
	c.submitCalls++
	fn := c.submitFn
	c.mu.Unlock()
	if fn == nil {
		return &api.Response{Kind: api.KindResults, PrimaryResults: []api.ResultItem{}}, nil
	}
	return fn(text)
}

func (c *stubClient) PollJob(ctx context.Context, jobID string) (*api.Response, error) {
	c.mu.Lock()
	c.pollCalls++
	fn := c.pollFn
	c.mu.Unlock()
	if fn == nil {
		return &api.Response{Status: api.StatusProcessing}, nil
	}
	return fn(jobID)
}

func (c *stubClient) FetchArtifact(ctx context.Context, ref string) ([]byte, error) {
	return []byte("artifact"), nil
}

func (c *stubClient) SubmitCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCalls
}

func (c *stubClient) PollCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollCalls
}

func jobResponse(jobID, status string) (*api.Response, error) {
	return &api.Response{Kind: api.KindJob, JobID: jobID, Status: status}, nil
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

// fastOptions keeps tests quick while preserving the interval < gap <
// timeout ordering of the real defaults.
func fastOptions() Options {
	return Options{
		PollInterval: 10 * time.Millisecond,
		PollMinGap:   5 * time.Millisecond,
		HardTimeout:  time.Second,
	}
}
