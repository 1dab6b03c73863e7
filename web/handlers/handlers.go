// Package handlers provides the HTTP API for debate runs.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
	"github.com/redwing-381/ethglb-p1-sub001/internal/engine"
	"github.com/redwing-381/ethglb-p1-sub001/internal/storage"
)

// RunTimeout bounds a whole debate run started over the API. There is
// no per-step cancellation; this is the only cancellation mechanism.
const RunTimeout = 30 * time.Minute

// Defaults are the run settings applied when a request omits them.
type Defaults struct {
	MaxRounds int
	Budget    float64
	Payer     string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	storage  storage.Storage
	defaults Defaults

	mu   sync.RWMutex
	live map[string]*liveRun
}

// liveRun tracks an in-flight debate for streaming consumers.
type liveRun struct {
	mu     sync.Mutex
	id     string
	topic  string
	events []core.ActivityEvent
	done   bool
	failed string
}

func (l *liveRun) snapshot() (events []core.ActivityEvent, done bool, failed string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.ActivityEvent(nil), l.events...), l.done, l.failed
}

// New creates a new Handler.
func New(eng *engine.Engine, store storage.Storage, defaults Defaults) *Handler {
	return &Handler{
		engine:   eng,
		storage:  store,
		defaults: defaults,
		live:     make(map[string]*liveRun),
	}
}

// Router builds the chi router with all API routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/estimate", h.handleEstimate)
		r.Route("/debates", func(r chi.Router) {
			r.Get("/", h.handleListDebates)
			r.Post("/", h.handleCreateDebate)
			r.Get("/{id}", h.handleGetDebate)
			r.Delete("/{id}", h.handleDeleteDebate)
			r.Get("/{id}/events", h.handleDebateEvents)
		})
	})

	return r
}

// handleEstimate returns the cost breakdown for a round count.
func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	rounds := h.defaults.MaxRounds
	if val := r.URL.Query().Get("rounds"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid rounds parameter")
			return
		}
		rounds = parsed
	}

	h.writeJSON(w, http.StatusOK, h.engine.Estimate(rounds))
}

// handleListDebates lists archived runs.
func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	summaries, err := h.storage.ListRuns(limit, offset)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list debates")
		return
	}
	if summaries == nil {
		summaries = []*core.RunSummary{}
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// createDebateRequest is the POST /api/debates payload.
type createDebateRequest struct {
	Topic     string  `json:"topic"`
	MaxRounds int     `json:"max_rounds,omitempty"`
	Budget    float64 `json:"budget,omitempty"`
	Payer     string  `json:"payer,omitempty"`
}

// createDebateResponse acknowledges a started run.
type createDebateResponse struct {
	ID            string              `json:"id"`
	Topic         string              `json:"topic"`
	EstimatedCost *core.CostBreakdown `json:"estimated_cost"`
}

// handleCreateDebate starts a debate run in the background. The
// response carries the run ID for the events stream.
func (h *Handler) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req createDebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		h.writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	opts := engine.Options{
		MaxRounds: req.MaxRounds,
		Budget:    req.Budget,
		Payer:     req.Payer,
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = h.defaults.MaxRounds
	}
	if opts.Budget == 0 {
		opts.Budget = h.defaults.Budget
	}
	if opts.Payer == "" {
		opts.Payer = h.defaults.Payer
	}

	// Reject precondition violations synchronously so the caller gets
	// a proper status code instead of a failed stream.
	estimate := h.engine.Estimate(opts.MaxRounds)
	if !h.engine.ValidateBalance(opts.Budget, opts.MaxRounds) {
		h.writeError(w, http.StatusPaymentRequired, "insufficient balance for the configured round ceiling")
		return
	}

	run := &liveRun{id: core.GenerateID(), topic: req.Topic}
	h.mu.Lock()
	h.live[run.id] = run
	h.mu.Unlock()

	go h.executeRun(run, req.Topic, opts)

	h.writeJSON(w, http.StatusAccepted, createDebateResponse{
		ID:            run.id,
		Topic:         req.Topic,
		EstimatedCost: estimate,
	})
}

// executeRun drives a background debate run and archives the result.
func (h *Handler) executeRun(run *liveRun, topic string, opts engine.Options) {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	callback := func(ev core.ActivityEvent, _ *core.Contribution) {
		run.mu.Lock()
		run.events = append(run.events, ev)
		run.mu.Unlock()
	}

	result, err := h.engine.Run(ctx, topic, opts, callback)

	run.mu.Lock()
	run.done = true
	if err != nil {
		run.failed = err.Error()
	}
	run.mu.Unlock()

	if err != nil {
		slog.Error("Background run failed", "id", run.id, "error", err)
		return
	}

	// Archive under the live ID so stream consumers can fetch the result.
	result.ID = run.id
	if err := h.storage.SaveRun(result); err != nil {
		slog.Error("Failed to archive run", "id", run.id, "error", err)
		return
	}

	// Once archived, new stream consumers replay from the archive;
	// in-flight streams keep their pointer and finish on the done flag.
	h.mu.Lock()
	delete(h.live, run.id)
	h.mu.Unlock()
}

// handleGetDebate returns an archived run.
func (h *Handler) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.storage.GetRun(id)
	if err != nil {
		slog.Error("Failed to get run", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get debate")
		return
	}
	if result == nil {
		h.writeError(w, http.StatusNotFound, "debate not found")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// handleDeleteDebate removes an archived run.
func (h *Handler) handleDeleteDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.storage.DeleteRun(id); err != nil {
		h.writeError(w, http.StatusNotFound, "debate not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
