package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redwing-381/ethglb-p1-sub001/internal/agent"
	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
	"github.com/redwing-381/ethglb-p1-sub001/internal/engine"
	"github.com/redwing-381/ethglb-p1-sub001/internal/pricing"
	"github.com/redwing-381/ethglb-p1-sub001/internal/storage"
)

func setupHandler(t *testing.T) *Handler {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(agent.NewOfflineInvoker(), pricing.DefaultTable())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	return New(eng, store, Defaults{MaxRounds: 1, Budget: 1.0, Payer: "user"})
}

// waitForRun polls the archive until the background run lands.
func waitForRun(t *testing.T, h *Handler, id string) *core.RunResult {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		result, err := h.storage.GetRun(id)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if result != nil {
			return result
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("run was not archived in time")
	return nil
}

// waitForPrune polls until the live entry is dropped after archiving.
func waitForPrune(t *testing.T, h *Handler, id string) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		_, ok := h.live[id]
		h.mu.RUnlock()
		if !ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("live entry was not pruned in time")
}

func TestCreateDebate(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	body := bytes.NewBufferString(`{"topic":"Should remote work be the default?","max_rounds":1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/debates/", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("wrong status: got %d, want %d (%s)", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp createDebateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("response is missing a run ID")
	}
	if resp.EstimatedCost == nil || resp.EstimatedCost.Rounds != 1 {
		t.Errorf("wrong estimate: %+v", resp.EstimatedCost)
	}

	result := waitForRun(t, h, resp.ID)
	if result.Topic != "Should remote work be the default?" {
		t.Errorf("wrong topic: %q", result.Topic)
	}
	if len(result.Contributions) != 7 {
		t.Errorf("wrong contribution count: got %d, want 7", len(result.Contributions))
	}
	if len(result.Payments) != len(result.Events) {
		t.Errorf("payments and events diverge: %d vs %d", len(result.Payments), len(result.Events))
	}

	// The live entry must not outlive the archived run.
	waitForPrune(t, h, resp.ID)
}

func TestCreateDebateValidation(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"EmptyTopic", `{"topic":""}`, http.StatusBadRequest},
		{"MalformedBody", `not json`, http.StatusBadRequest},
		{"InsufficientBudget", `{"topic":"x","max_rounds":3,"budget":0.01}`, http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/debates/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("wrong status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestGetDebate(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	body := bytes.NewBufferString(`{"topic":"Test topic"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/debates/", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp createDebateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	waitForRun(t, h, resp.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/debates/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("wrong status: got %d", rec.Code)
	}

	var result core.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.ID != resp.ID {
		t.Errorf("wrong ID: got %q, want %q", result.ID, resp.ID)
	}
	if result.Transcript == nil || result.Transcript.TotalRounds != 1 {
		t.Errorf("transcript is incomplete: %+v", result.Transcript)
	}
}

func TestGetDebateNotFound(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/debates/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListDebates(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/debates/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("wrong status: got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty archive should list as []: got %q", got)
	}

	body := bytes.NewBufferString(`{"topic":"Listed topic"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/debates/", body)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp createDebateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	waitForRun(t, h, resp.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/debates/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var summaries []*core.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("failed to decode summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("wrong summary count: got %d", len(summaries))
	}
	if summaries[0].Topic != "Listed topic" {
		t.Errorf("wrong topic: %q", summaries[0].Topic)
	}
}

func TestDeleteDebate(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	body := bytes.NewBufferString(`{"topic":"Delete me"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/debates/", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp createDebateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	waitForRun(t, h, resp.ID)

	req = httptest.NewRequest(http.MethodDelete, "/api/debates/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("wrong status: got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/debates/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete should 404: got %d", rec.Code)
	}
}

func TestEstimate(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/estimate?rounds=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("wrong status: got %d", rec.Code)
	}

	var breakdown core.CostBreakdown
	if err := json.Unmarshal(rec.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("failed to decode breakdown: %v", err)
	}
	if breakdown.Rounds != 2 {
		t.Errorf("wrong rounds: got %d", breakdown.Rounds)
	}
	if breakdown.Total <= breakdown.AgentSubtotal {
		t.Errorf("total should include the platform fee: %+v", breakdown)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/estimate?rounds=bogus", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong status for bad rounds: got %d", rec.Code)
	}
}

func TestEventStreamReplay(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	body := bytes.NewBufferString(`{"topic":"Streamed topic"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/debates/", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp createDebateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	result := waitForRun(t, h, resp.ID)

	// Archived runs are dropped from the live map, so the stream takes
	// the archive replay path.
	waitForPrune(t, h, resp.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/debates/"+resp.ID+"/events", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("wrong content type: %q", ct)
	}

	var eventCount int
	var sawComplete bool
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == fmt.Sprintf("event: %s", core.EventStepCompleted) {
			eventCount++
		}
		if line == "event: debate_complete" {
			sawComplete = true
		}
	}

	if eventCount != len(result.Events) {
		t.Errorf("wrong replayed event count: got %d, want %d", eventCount, len(result.Events))
	}
	if !sawComplete {
		t.Error("stream is missing the terminal event")
	}
}

func TestEventStreamNotFound(t *testing.T) {
	h := setupHandler(t)
	router := h.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/debates/nonexistent/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "event: error") {
		t.Errorf("expected an error event, got %q", rec.Body.String())
	}
}
