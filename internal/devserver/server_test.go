package devserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
)

func testServer(t *testing.T, jobDuration time.Duration) (*Server, *api.HTTPClient) {
	t.Helper()
	srv := New(logging.NewLogger("devserver-test"), jobDuration)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, api.NewHTTPClient(ts.URL, 5*time.Second)
}

func TestChatReturnsResults(t *testing.T) {
	_, client := testServer(t, time.Second)

	resp, err := client.SubmitQuery(context.Background(), "limits review")
	require.NoError(t, err)
	assert.Equal(t, api.KindResults, resp.Kind)
	assert.NotEmpty(t, resp.PrimaryResults)
	assert.NotEmpty(t, resp.CommunityResults)
	assert.Contains(t, resp.Keywords, "limits")
}

func TestChatStartsJobAndCompletes(t *testing.T) {
	_, client := testServer(t, 50*time.Millisecond)

	resp, err := client.SubmitQuery(context.Background(), "generate practice exam")
	require.NoError(t, err)
	require.Equal(t, api.KindJob, resp.Kind)
	require.NotEmpty(t, resp.JobID)

	time.Sleep(80 * time.Millisecond)
	progress, err := client.PollJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, progress.Status)
	require.NotEmpty(t, progress.ArtifactRef)

	data, err := client.FetchArtifact(context.Background(), progress.ArtifactRef)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}

func TestProgressReportsAdvisoryFields(t *testing.T) {
	_, client := testServer(t, 10*time.Second)

	resp, err := client.SubmitQuery(context.Background(), "generate summary")
	require.NoError(t, err)

	progress, err := client.PollJob(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, api.StatusProcessing, progress.Status)
	require.NotNil(t, progress.Progress)
	assert.Less(t, *progress.Progress, 100)
	require.NotNil(t, progress.EstimatedSecondsLeft)
}

func TestProgressUnknownJob(t *testing.T) {
	_, client := testServer(t, time.Second)

	_, err := client.PollJob(context.Background(), "nope")
	require.Error(t, err)
}
