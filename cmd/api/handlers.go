package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"codewalk/internal/artifact"
	"codewalk/internal/gh"
	"codewalk/internal/jsonutil"
	"codewalk/internal/llm"
	"codewalk/internal/run"
	"codewalk/internal/store"
	"codewalk/internal/walkthrough"
)

// apiServer wires the walkthrough pipeline to HTTP.
type apiServer struct {
	svc       *walkthrough.Service
	store     *store.Store
	runs      *run.Registry
	artifacts artifact.Store // nil when archival is disabled
}

func newAPIServer(svc *walkthrough.Service, st *store.Store, runs *run.Registry, artifacts artifact.Store) *apiServer {
	return &apiServer{svc: svc, store: st, runs: runs, artifacts: artifacts}
}

func buildMux(s *apiServer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/walkthrough", s.handleGenerate)
	mux.HandleFunc("/api/walkthrough/async", s.handleGenerateAsync)
	mux.HandleFunc("/api/walkthrough/", s.handleGetWalkthrough)
	mux.HandleFunc("/api/watch/", s.handleWatchSSE)
	mux.HandleFunc("/api/ws", s.handleWatchWS)
	mux.HandleFunc("/api/runs/", s.handleRunArtifacts)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type generateRequest struct {
	URL string `json:"url"`
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	wt, err := s.svc.Generate(r.Context(), req.URL, nil)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

func (s *apiServer) handleGenerateAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	// Reject obviously bad URLs before accepting the run.
	if _, _, err := gh.ParseRepoURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rn := s.runs.Create()
	go s.executeRun(rn, req.URL)

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": rn.ID})
}

func (s *apiServer) executeRun(rn *run.Run, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if s.artifacts != nil {
		ctx = llm.WithHook(ctx, artifact.NewArchiver(s.artifacts, rn.ID))
	}

	progress := func(stage string, pct int, msg string) {
		s.runs.Publish(rn, run.Event{
			Type:    run.EventProgress,
			Stage:   stage,
			Percent: pct,
			Message: msg,
		})
	}

	wt, err := s.svc.Generate(ctx, url, progress)
	if err != nil {
		log.Printf("run %s failed: %v", rn.ID, err)
		s.runs.Publish(rn, run.Event{Type: run.EventError, Percent: 100, Error: err.Error()})
		return
	}
	s.runs.Publish(rn, run.Event{
		Type:          run.EventComplete,
		Percent:       100,
		WalkthroughID: wt.ID,
	})
}

func (s *apiServer) handleGetWalkthrough(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/walkthrough/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "walkthrough id required")
		return
	}
	wt, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "walkthrough not found")
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

// handleRunArtifacts serves the archived model exchanges of a run:
// GET /api/runs/{run_id}/artifacts lists paths, /artifacts/{path} fetches one.
func (s *apiServer) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.artifacts == nil {
		writeError(w, http.StatusNotFound, "artifact archival is disabled")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, after, found := strings.Cut(rest, "/artifacts")
	if !found || runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if after == "" || after == "/" {
		paths, err := s.artifacts.List(r.Context(), runID)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "artifacts": paths})
		return
	}

	path := strings.TrimPrefix(after, "/")
	data, err := s.artifacts.Get(r.Context(), runID, path)
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, gh.ErrInvalidRepoURL):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, gh.ErrRepoNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, walkthrough.ErrTooFewFiles):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, walkthrough.ErrModelResponse):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, err.Error()
	default:
		return http.StatusBadGateway, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		log.Printf("encode response: %v", err)
		return
	}
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
