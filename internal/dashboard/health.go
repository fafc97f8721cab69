package dashboard

import (
	"context"
	"sync"
	"time"
)

const (
	badgeChecking = "API: checking"
	badgeOffline  = "API: offline"
)

// Badge is the backend status indicator.
type Badge struct {
	Text string `json:"text"`
	Warn bool   `json:"warn"`
}

// HealthSample is one probe result.
type HealthSample struct {
	At        time.Time `json:"at"`
	LatencyMS float64   `json:"latency_ms"`
	OK        bool      `json:"ok"`
}

// HealthMonitor probes the backend and keeps a bounded probe history.
type HealthMonitor struct {
	api       API
	maxPoints int

	mu      sync.Mutex
	badge   Badge
	history []HealthSample
}

func NewHealthMonitor(api API, maxPoints int) *HealthMonitor {
	if maxPoints <= 0 {
		maxPoints = 120
	}
	return &HealthMonitor{
		api:       api,
		maxPoints: maxPoints,
		badge:     Badge{Text: badgeChecking},
	}
}

// Check calls the backend health endpoint without touching the badge or
// the history.
func (h *HealthMonitor) Check(ctx context.Context) (Badge, time.Duration, error) {
	start := time.Now()
	status, err := h.api.Health(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return Badge{Text: badgeOffline, Warn: true}, elapsed, err
	}
	return Badge{Text: "API: " + status.Status}, elapsed, nil
}

// Probe runs Check and records the result in the badge and history.
func (h *HealthMonitor) Probe(ctx context.Context) Badge {
	start := time.Now()
	badge, elapsed, err := h.Check(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.badge = badge
	h.history = append(h.history, HealthSample{
		At:        start.UTC(),
		LatencyMS: float64(elapsed.Microseconds()) / 1000,
		OK:        err == nil,
	})
	if len(h.history) > h.maxPoints {
		h.history = append([]HealthSample(nil), h.history[len(h.history)-h.maxPoints:]...)
	}
	return badge
}

func (h *HealthMonitor) Badge() Badge {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.badge
}

// History returns the kept probes, oldest first.
func (h *HealthMonitor) History() []HealthSample {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HealthSample{}, h.history...)
}
