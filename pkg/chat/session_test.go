package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyscout/scout/pkg/api"
)

func TestSubmitSearchResults(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return &api.Response{
				Kind: api.KindResults,
				PrimaryResults: []api.ResultItem{
					{Title: "A", RelevanceScore: 5},
				},
				CommunityResults: []api.ResultItem{
					{Title: "B", RelevanceScore: 9},
				},
			}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("find limits review")

	// The user message is visible before the response resolves.
	snap := s.Snapshot()
	require.NotEmpty(t, snap.Transcript)
	assert.Equal(t, AuthorUser, snap.Transcript[0].Author)
	assert.Equal(t, "find limits review", snap.Transcript[0].Text)

	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })

	snap = s.Snapshot()
	require.Len(t, snap.Transcript, 2)
	results := snap.Transcript[1].Results
	require.Len(t, results, 2)
	assert.Equal(t, "B", results[0].Title)
	assert.Equal(t, "A", results[1].Title)
}

func TestDoubleSubmitSuppressed(t *testing.T) {
	release := make(chan struct{})
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			<-release
			return &api.Response{Kind: api.KindResults, PrimaryResults: []api.ResultItem{}}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("same query")
	s.Submit("same query")
	s.Submit("different query while in flight")

	snap := s.Snapshot()
	assert.Len(t, snap.Transcript, 1, "only one user message")

	close(release)
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })
	assert.Equal(t, 1, client.SubmitCalls())
}

func TestSameTextResubmitAfterSettle(t *testing.T) {
	client := &stubClient{}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("query")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })
	s.Submit("query")
	waitFor(t, time.Second, func() bool { return client.SubmitCalls() == 2 })
}

func TestTransportFailureSettlesFailed(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return nil, assert.AnError
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("query")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateFailed })

	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, KindErrorNotice, snap.Transcript[1].Kind)
	assert.NotEmpty(t, snap.Transcript[1].Text)
}

func TestJobLifecycleToFileReady(t *testing.T) {
	var mu sync.Mutex
	status := api.StatusProcessing
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
		pollFn: func(jobID string) (*api.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			if status == api.StatusCompleted {
				return &api.Response{Status: api.StatusCompleted, ArtifactRef: "R1"}, nil
			}
			p := 30
			return &api.Response{Status: api.StatusProcessing, Progress: &p, Message: "generating"}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("generate practice exam")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateJobRunning })

	waitFor(t, time.Second, func() bool {
		snap := s.Snapshot()
		return len(snap.Transcript) == 2 &&
			snap.Transcript[1].ProgressPercent != nil &&
			*snap.Transcript[1].ProgressPercent == 30
	})
	progressID := s.Snapshot().Transcript[1].ID

	mu.Lock()
	status = api.StatusCompleted
	mu.Unlock()

	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })

	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 2, "the progress message mutates in place")
	final := snap.Transcript[1]
	assert.Equal(t, progressID, final.ID)
	assert.Equal(t, KindFileReady, final.Kind)
	assert.Equal(t, "R1", final.ArtifactRef)
	assert.Equal(t, 100, *final.ProgressPercent)
	assert.Nil(t, snap.Job)
}

func TestJobHardTimeout(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
	}
	opts := fastOptions()
	opts.HardTimeout = 100 * time.Millisecond
	s := NewSession(client, opts)
	defer s.Close()

	s.Submit("generate practice exam")
	waitFor(t, 2*time.Second, func() bool { return s.Snapshot().State == StateFailed })

	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, KindErrorNotice, snap.Transcript[1].Kind)
	assert.Contains(t, snap.Transcript[1].Text, "timed out")
	assert.Nil(t, snap.Job)
}

func TestCompletedWithoutRefIsFailure(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
		pollFn: func(jobID string) (*api.Response, error) {
			return &api.Response{Status: api.StatusCompleted}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("generate practice exam")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateFailed })
	assert.Equal(t, KindErrorNotice, s.Snapshot().Transcript[1].Kind)
}

func TestCancelledJobNeverMutatesAfterCancel(t *testing.T) {
	releaseJ1 := make(chan struct{})
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			if text == "second" {
				return jobResponse("J2", api.StatusProcessing)
			}
			return jobResponse("J1", api.StatusProcessing)
		},
		pollFn: func(jobID string) (*api.Response, error) {
			if jobID == "J1" {
				// Simulates a poll response that arrives only after
				// the job was cancelled.
				<-releaseJ1
				return &api.Response{Status: api.StatusCompleted, ArtifactRef: "stale"}, nil
			}
			return &api.Response{Status: api.StatusCompleted, ArtifactRef: "R2"}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("first")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateJobRunning })

	s.CancelActiveJob()
	s.Submit("second")
	close(releaseJ1)

	waitFor(t, time.Second, func() bool {
		snap := s.Snapshot()
		for _, m := range snap.Transcript {
			if m.JobID == "J2" && m.Kind == KindFileReady {
				return true
			}
		}
		return false
	})

	// Give the stale response time to arrive, then verify it changed
	// nothing.
	time.Sleep(50 * time.Millisecond)
	for _, m := range s.Snapshot().Transcript {
		if m.JobID == "J1" {
			assert.Equal(t, KindProgressUpdate, m.Kind)
			assert.Empty(t, m.ArtifactRef)
		}
	}
}

func TestNewSubmissionSupersedesRunningJob(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			if text == "second" {
				return &api.Response{Kind: api.KindResults, PrimaryResults: []api.ResultItem{}}, nil
			}
			return jobResponse("J1", api.StatusProcessing)
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("first")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateJobRunning })

	s.Submit("second")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })
	assert.Nil(t, s.Snapshot().Job)
}

func TestSubscribeDeliversImmediateSnapshot(t *testing.T) {
	client := &stubClient{}
	s := NewSession(client, fastOptions())
	defer s.Close()

	ch := s.Subscribe()
	select {
	case snap := <-ch:
		assert.Equal(t, StateIdle, snap.State)
		assert.Empty(t, snap.Transcript)
	default:
		t.Fatal("no immediate snapshot queued")
	}

	s.Submit("query")
	select {
	case snap := <-ch:
		assert.Equal(t, StateSearching, snap.State)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after submit")
	}

	s.Unsubscribe(ch)
	for range ch {
		// Drain until the channel closes.
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("query")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateJobRunning })

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Transcript)
	assert.Nil(t, snap.Job)
}

func TestElapsedFallsBackToLocalClock(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
		pollFn: func(jobID string) (*api.Response, error) {
			// No elapsedTimeSeconds in the response.
			p := 10
			return &api.Response{Status: api.StatusProcessing, Progress: &p}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("query")
	waitFor(t, time.Second, func() bool {
		snap := s.Snapshot()
		return snap.Job != nil && snap.Job.ProgressPercent == 10
	})
	assert.GreaterOrEqual(t, s.Snapshot().Job.ElapsedSeconds, 0)
}

func TestSourceResultsKeepPerSourceLists(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return &api.Response{
				Kind:             api.KindResults,
				PrimaryResults:   []api.ResultItem{{Title: "forum", RelevanceScore: 3}},
				CommunityResults: []api.ResultItem{{Title: "community", RelevanceScore: 7}},
			}, nil
		},
	}
	s := NewSession(client, fastOptions())
	defer s.Close()

	s.Submit("query")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })

	primary, community := s.SourceResults()
	require.Len(t, primary, 1)
	require.Len(t, community, 1)
	assert.Equal(t, "forum", primary[0].Title)
	assert.Equal(t, "community", community[0].Title)

	// The merged transcript view is untouched by accessor mutation.
	primary[0].Title = "mutated"
	fresh, _ := s.SourceResults()
	assert.Equal(t, "forum", fresh[0].Title)
}

func TestUpdateOptionsAppliesToNextJob(t *testing.T) {
	client := &stubClient{
		submitFn: func(text string) (*api.Response, error) {
			return jobResponse("J1", api.StatusProcessing)
		},
		// Never finishes, so only the hard timeout can settle the job.
		pollFn: func(jobID string) (*api.Response, error) {
			return &api.Response{Status: api.StatusProcessing}, nil
		},
	}
	s := NewSession(client, Options{
		PollInterval: 10 * time.Millisecond,
		PollMinGap:   5 * time.Millisecond,
		HardTimeout:  time.Hour,
	})
	defer s.Close()

	s.UpdateOptions(Options{
		PollInterval: 10 * time.Millisecond,
		PollMinGap:   5 * time.Millisecond,
		HardTimeout:  60 * time.Millisecond,
	})

	s.Submit("generate exam")
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateFailed })
}
