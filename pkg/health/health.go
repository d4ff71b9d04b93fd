// Package health exposes liveness and readiness endpoints over a set of
// registered dependency probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds the whole readiness sweep; a hung dependency should
// flip readiness, not hang the probe.
const checkTimeout = 5 * time.Second

// Checker probes one dependency. A nil return means healthy.
type Checker func(ctx context.Context) error

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
	// StatusDegraded means every critical dependency is up but at least one
	// non-critical one is not. The endpoint still answers 200 so the
	// orchestrator keeps routing traffic.
	StatusDegraded Status = "degraded"
)

// CheckResult is the outcome of a single probe.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

// Response is the body of both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

type probe struct {
	name     string
	check    Checker
	critical bool
}

// Handler aggregates named dependency probes into HTTP endpoints.
type Handler struct {
	mu     sync.RWMutex
	probes map[string]probe
}

func NewHandler() *Handler {
	return &Handler{probes: make(map[string]probe)}
}

// Register adds a critical probe. Registering the same name again replaces
// the previous probe.
func (h *Handler) Register(name string, c Checker) {
	h.RegisterCritical(name, c)
}

// RegisterCritical adds a probe whose failure makes the service not ready.
func (h *Handler) RegisterCritical(name string, c Checker) {
	h.register(name, c, true)
}

// RegisterNonCritical adds a probe whose failure only degrades the service:
// readiness stays 200 and the check is reported as down.
func (h *Handler) RegisterNonCritical(name string, c Checker) {
	h.register(name, c, false)
}

func (h *Handler) register(name string, c Checker, critical bool) {
	h.mu.Lock()
	h.probes[name] = probe{name: name, check: c, critical: critical}
	h.mu.Unlock()
}

// LivenessHandler answers 200 whenever the process can serve requests at all.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler runs every registered probe concurrently. A failed
// critical probe answers 503; failed non-critical probes only mark the
// response degraded.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		h.mu.RLock()
		probes := make([]probe, 0, len(h.probes))
		for _, p := range h.probes {
			probes = append(probes, p)
		}
		h.mu.RUnlock()

		results := make([]CheckResult, len(probes))
		var wg sync.WaitGroup
		for i, p := range probes {
			wg.Add(1)
			go func(i int, p probe) {
				defer wg.Done()
				res := CheckResult{Status: StatusUp, Critical: p.critical}
				if err := p.check(ctx); err != nil {
					res.Status = StatusDown
					res.Error = err.Error()
				}
				results[i] = res
			}(i, p)
		}
		wg.Wait()

		overall := StatusUp
		checks := make(map[string]CheckResult, len(results))
		for i, res := range results {
			checks[probes[i].name] = res
			if res.Status != StatusDown {
				continue
			}
			if res.Critical {
				overall = StatusDown
			} else if overall == StatusUp {
				overall = StatusDegraded
			}
		}

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{
			Status:    overall,
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
