package webview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
	"github.com/studyscout/scout/pkg/chat"
)

type fixedClient struct{}

func (fixedClient) SubmitQuery(ctx context.Context, text string) (*api.Response, error) {
	return &api.Response{
		Kind:           api.KindResults,
		PrimaryResults: []api.ResultItem{{Title: "hit", RelevanceScore: 1}},
	}, nil
}

func (fixedClient) PollJob(ctx context.Context, jobID string) (*api.Response, error) {
	return &api.Response{Status: api.StatusProcessing}, nil
}

func (fixedClient) FetchArtifact(ctx context.Context, ref string) ([]byte, error) {
	return []byte("artifact"), nil
}

func testWebview(t *testing.T) (*httptest.Server, *chat.Session) {
	t.Helper()
	session := chat.NewSession(fixedClient{}, chat.Options{})
	t.Cleanup(session.Close)
	srv := New(logging.NewLogger("webview-test"), session)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, session
}

func TestStateEndpoint(t *testing.T) {
	ts, _ := testWebview(t)

	resp, err := http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap chat.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, chat.StateIdle, snap.State)
}

func TestSubmitEndpoint(t *testing.T) {
	ts, session := testWebview(t)

	resp, err := http.Post(ts.URL+"/api/submit", "application/json",
		strings.NewReader(`{"text":"find something"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if session.Snapshot().State == chat.StateReady {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never settled")
}

func TestSubmitRejectsEmptyBody(t *testing.T) {
	ts, _ := testWebview(t)

	resp, err := http.Post(ts.URL+"/api/submit", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketStreamsSnapshots(t *testing.T) {
	ts, session := testWebview(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var first chat.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, chat.StateIdle, first.State)

	session.Submit("query")

	// Snapshots arrive for searching and then ready.
	sawReady := false
	for i := 0; i < 5 && !sawReady; i++ {
		var snap chat.Snapshot
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if err := conn.ReadJSON(&snap); err != nil {
			break
		}
		sawReady = snap.State == chat.StateReady
	}
	assert.True(t, sawReady, "expected a ready snapshot over the socket")
}
