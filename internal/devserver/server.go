// Package devserver provides a local stand-in for the search/generation
// service, used for development and demos when the real backend is not
// reachable.
package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/studyscout/scout/pkg/api"
)

// jobDuration is how long a fake generation job takes from submission to
// completed.
const defaultJobDuration = 20 * time.Second

type fakeJob struct {
	id        string
	startedAt time.Time
	duration  time.Duration
}

// Server implements the three service endpoints the client speaks to.
type Server struct {
	logger      *logrus.Entry
	server      *http.Server
	jobDuration time.Duration

	mu   sync.Mutex
	jobs map[string]*fakeJob
}

// New creates a dev server. jobDuration <= 0 uses the default.
func New(logger *logrus.Entry, jobDuration time.Duration) *Server {
	if jobDuration <= 0 {
		jobDuration = defaultJobDuration
	}
	return &Server{
		logger:      logger,
		jobDuration: jobDuration,
		jobs:        make(map[string]*fakeJob),
	}
}

// Handler returns the route table, exposed separately so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/progress/", s.handleProgress)
	mux.HandleFunc("/artifact/", s.handleArtifact)
	return mux
}

// ListenAndServe starts the dev server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.WithField("addr", addr).Info("Dev server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down dev server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleChat classifies the submitted text with a crude keyword heuristic:
// generation phrasing starts a job, everything else returns search results.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	text := strings.ToLower(req.Message)
	s.logger.WithField("message", req.Message).Debug("Chat request")

	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(text, "generate") || strings.Contains(text, "exam") {
		job := &fakeJob{
			id:        uuid.NewString(),
			startedAt: time.Now(),
			duration:  s.jobDuration,
		}
		s.mu.Lock()
		s.jobs[job.id] = job
		s.mu.Unlock()

		json.NewEncoder(w).Encode(api.Response{
			Kind:    api.KindJob,
			JobID:   job.id,
			Status:  api.StatusPending,
			Message: "Preparing your document...",
		})
		return
	}

	json.NewEncoder(w).Encode(api.Response{
		Kind:             api.KindResults,
		Keywords:         keywordsFrom(req.Message),
		PrimaryResults:   samplePrimaryResults(req.Message),
		CommunityResults: sampleCommunityResults(req.Message),
	})
}

// handleProgress reports fake progress derived from elapsed wall clock.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/progress/")

	s.mu.Lock()
	job, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	elapsed := time.Since(job.startedAt)
	w.Header().Set("Content-Type", "application/json")

	if elapsed >= job.duration {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
		json.NewEncoder(w).Encode(api.Response{
			Status:      api.StatusCompleted,
			ArtifactRef: "/artifact/" + jobID + ".pdf",
		})
		return
	}

	percent := int(elapsed * 100 / job.duration)
	left := int((job.duration - elapsed).Seconds())
	elapsedSecs := int(elapsed.Seconds())
	json.NewEncoder(w).Encode(api.Response{
		Status:               api.StatusProcessing,
		Progress:             &percent,
		Message:              fmt.Sprintf("Generating your document (%d%%)...", percent),
		EstimatedSecondsLeft: &left,
		ElapsedSeconds:       &elapsedSecs,
	})
}

// handleArtifact serves a minimal placeholder PDF for any known-looking ref.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/artifact/")
	if name == "" {
		http.Error(w, "missing artifact name", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(placeholderPDF(name))
}

func keywordsFrom(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 3 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

func samplePrimaryResults(query string) []api.ResultItem {
	return []api.ResultItem{
		{
			ID:             uuid.NewString(),
			Title:          "Lecture notes: " + query,
			Content:        "Worked examples and summaries covering the requested topic.",
			URL:            "https://example.org/notes/1",
			Source:         "primary",
			Timestamp:      time.Now().Format(time.RFC3339),
			RelevanceScore: 8.2,
		},
		{
			ID:             uuid.NewString(),
			Title:          "Past paper archive",
			Content:        "Previous assessments with solutions.",
			URL:            "https://example.org/papers/7",
			Source:         "primary",
			Timestamp:      time.Now().Format(time.RFC3339),
			RelevanceScore: 5.4,
		},
	}
}

func sampleCommunityResults(query string) []api.ResultItem {
	return []api.ResultItem{
		{
			ID:             uuid.NewString(),
			Title:          "Discussion: " + query,
			Content:        "Community thread with explanations and follow-up questions.",
			URL:            "https://example.org/community/42",
			Source:         "community",
			Timestamp:      time.Now().Format(time.RFC3339),
			CommentCount:   17,
			RelevanceScore: 6.9,
		},
	}
}

// placeholderPDF builds a one-page PDF containing the artifact name. The
// structure is the minimum a viewer accepts.
func placeholderPDF(name string) []byte {
	content := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (%s) Tj ET", name)
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	b.WriteString("2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	b.WriteString("3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >> endobj\n")
	fmt.Fprintf(&b, "4 0 obj << /Length %d >> stream\n%s\nendstream endobj\n", len(content), content)
	b.WriteString("5 0 obj << /Type /Font /Subtype /Type1 /BaseFont /Helvetica >> endobj\n")
	b.WriteString("trailer << /Root 1 0 R >>\n%%EOF\n")
	return []byte(b.String())
}
