package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studyscout/scout/errors"
	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/paths"
	"github.com/studyscout/scout/pkg/profiling"
)

// queryLogInterval throttles per-request logging so a busy poll loop does not
// flood the log file.
const queryLogInterval = 3 * time.Second

// HTTPClient implements Client against the service's JSON HTTP API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	log        *logrus.Entry

	logMu       sync.Mutex
	lastPollLog time.Time
}

// NewHTTPClient creates a client for the service at baseURL. timeout bounds
// each individual request, not the overall job.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logging.NewLogger("api"),
	}
}

type submitRequest struct {
	Message string `json:"message"`
}

// SubmitQuery posts the query text to the chat endpoint. A JSON body is
// decoded into a Response; a PDF body is saved to a temporary file and
// returned as a direct artifact.
func (c *HTTPClient) SubmitQuery(ctx context.Context, text string) (*Response, error) {
	defer profiling.Start("api.SubmitQuery").Stop()

	body, err := json.Marshal(submitRequest{Message: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	endpoint := c.baseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("endpoint", endpoint).Debug("Submitting query")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteStatus(endpoint, resp.StatusCode)
	}

	if isPDF(resp.Header.Get("Content-Type")) {
		ref, err := c.saveDirectArtifact(resp.Body)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindArtifact, ArtifactRef: ref}, nil
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.ClassificationFailed(fmt.Sprintf("invalid response body: %v", err))
	}
	return &decoded, nil
}

// PollJob fetches progress for jobID. Log lines are throttled because polls
// repeat every couple of seconds for minutes at a time.
func (c *HTTPClient) PollJob(ctx context.Context, jobID string) (*Response, error) {
	endpoint := c.baseURL + "/progress/" + jobID
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logMu.Lock()
	if time.Since(c.lastPollLog) >= queryLogInterval {
		c.lastPollLog = time.Now()
		c.logMu.Unlock()
		c.log.WithField("jobId", jobID).Debug("Polling job progress")
	} else {
		c.logMu.Unlock()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteStatus(endpoint, resp.StatusCode)
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.ClassificationFailed(fmt.Sprintf("invalid progress body: %v", err))
	}
	return &decoded, nil
}

// FetchArtifact downloads the artifact behind ref. Refs may be absolute
// URLs, service-relative paths, or local files already saved by a direct
// artifact response.
func (c *HTTPClient) FetchArtifact(ctx context.Context, ref string) ([]byte, error) {
	defer profiling.Start("api.FetchArtifact").Stop()

	if strings.HasPrefix(ref, "file://") {
		data, err := os.ReadFile(strings.TrimPrefix(ref, "file://"))
		if err != nil {
			return nil, errors.ArtifactFetch(ref, err)
		}
		return data, nil
	}

	endpoint := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		endpoint = c.baseURL + "/" + strings.TrimLeft(ref, "/")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.RemoteStatus(endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ArtifactFetch(ref, err)
	}
	return data, nil
}

// Close cleans up idle connections held by the client.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// transportError maps a failed round trip to a timeout or unavailability
// error. The two need distinct codes because the session reports them
// differently.
func (c *HTTPClient) transportError(endpoint string, err error) error {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.RequestTimeout(endpoint, c.httpClient.Timeout.String())
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.RequestTimeout(endpoint, c.httpClient.Timeout.String())
	}
	return errors.NetworkUnavailable(endpoint, err)
}

// saveDirectArtifact writes a binary response body to the artifact cache and
// returns a file:// ref for it. Falls back to the system temp dir when the
// cache directory cannot be created.
func (c *HTTPClient) saveDirectArtifact(body io.Reader) (string, error) {
	dir := paths.ArtifactCacheDir()
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			dir = ""
		}
	}
	f, err := os.CreateTemp(dir, "scout-artifact-*.pdf")
	if err != nil {
		return "", errors.ArtifactFetch("direct response", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(f.Name())
		return "", errors.ArtifactFetch("direct response", err)
	}

	c.log.WithField("path", f.Name()).Debug("Saved direct artifact")
	return "file://" + f.Name(), nil
}

func isPDF(contentType string) bool {
	return strings.HasPrefix(contentType, "application/pdf")
}

// Ensure HTTPClient implements Client interface.
var _ Client = (*HTTPClient)(nil)
