// Package comfytest provides an in-process fake of the ComfyUI queue API
// for client and pipeline tests: submission handing out sequential prompt
// ids, scripted history responses (404s, pending records, final results),
// and an interrupt counter.
package comfytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Script controls how the server answers history requests for one job.
type Script struct {
	// NotFoundPolls is the number of initial 404 responses, simulating a
	// job that has not reached the queue yet.
	NotFoundPolls int

	// PendingPolls is the number of empty (pending) records served after
	// the 404 phase.
	PendingPolls int

	// Result is the final history record. Served verbatim once the 404
	// and pending phases are exhausted.
	Result map[string]any

	// Wrap serves the final record wrapped under the prompt id key, the
	// way real servers respond on /history.
	Wrap bool
}

type job struct {
	script Script
}

// Server is the fake. Create with [New], point a client at URL, and
// inspect Submitted / Interrupts afterwards.
type Server struct {
	ts *httptest.Server

	mu        sync.Mutex
	nextID    int
	jobs      map[string]*job
	script    Script
	queue     []Script
	submitted []map[string]any

	// OmitPromptID makes submissions answer without a prompt_id, for
	// exercising the client's configuration-error path.
	OmitPromptID bool

	// Interrupts counts POST /interrupt calls.
	Interrupts int
}

// New starts a fake server whose jobs all follow the zero Script
// (immediately done with an empty result). Use [Server.SetScript] to
// change behavior for subsequently submitted jobs.
func New() *Server {
	s := &Server{jobs: map[string]*job{}}

	r := chi.NewRouter()
	r.Post("/prompt", s.handleSubmit)
	r.Get("/history/{id}", s.handleHistory)
	r.Post("/interrupt", s.handleInterrupt)

	s.ts = httptest.NewServer(r)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string { return s.ts.URL }

// Close shuts the server down.
func (s *Server) Close() { s.ts.Close() }

// SetScript sets the script applied to each subsequently submitted job.
func (s *Server) SetScript(sc Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = sc
}

// QueueScript enqueues a script consumed by the next submission. Queued
// scripts take precedence over the template set with [Server.SetScript],
// so a sequence of jobs can each get its own response.
func (s *Server) QueueScript(sc Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, sc)
}

// Submitted returns the captured submission payloads in order.
func (s *Server) Submitted() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.submitted...)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("prompt-%d", s.nextID)
	s.submitted = append(s.submitted, payload)
	sc := s.script
	if len(s.queue) > 0 {
		sc = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.jobs[id] = &job{script: sc}
	omit := s.OmitPromptID
	n := s.nextID
	s.mu.Unlock()

	resp := map[string]any{"number": n}
	if !omit {
		resp["prompt_id"] = id
	}
	writeJSON(w, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	j := s.jobs[id]
	if j == nil {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	if j.script.NotFoundPolls > 0 {
		j.script.NotFoundPolls--
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	if j.script.PendingPolls > 0 {
		j.script.PendingPolls--
		s.mu.Unlock()
		writeJSON(w, map[string]any{})
		return
	}
	result := j.script.Result
	wrap := j.script.Wrap
	s.mu.Unlock()

	if result == nil {
		result = map[string]any{}
	}
	if wrap {
		writeJSON(w, map[string]any{id: result})
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.Interrupts++
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
