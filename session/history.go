// Package session tracks per-operator detection history for trend analytics.
package session

import (
	"sync"
	"time"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/models"
)

// History is an append-only chronological log of detection results for one
// operator session. Appends are serialized; stored results are never
// reordered or mutated in place.
type History struct {
	mu           sync.Mutex
	results      []*models.DetectionResult
	totalScans   int
	totalDefects int
	lastSeen     time.Time
}

// NewHistory returns an empty session history.
func NewHistory() *History {
	return &History{lastSeen: time.Now()}
}

// Append adds a result to the end of the log and updates the session
// counters.
func (h *History) Append(result *models.DetectionResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	h.totalScans++
	h.totalDefects += result.Count()
	h.lastSeen = time.Now()
}

// Recent returns the last n results in chronological order, or all of them
// when fewer exist. The returned slice is a copy; the log itself is never
// exposed.
func (h *History) Recent(n int) []*models.DetectionResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(h.results) {
		n = len(h.results)
	}

	out := make([]*models.DetectionResult, n)
	copy(out, h.results[len(h.results)-n:])
	return out
}

// LatestPair returns the current and immediately preceding results, the
// canonical input to trend computation. ok is false with fewer than two
// entries.
func (h *History) LatestPair() (current, previous *models.DetectionResult, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.results) < 2 {
		return nil, nil, false
	}
	return h.results[len(h.results)-1], h.results[len(h.results)-2], true
}

// Len reports the number of stored results.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.results)
}

// TotalScans is the number of scans recorded over the session lifetime.
func (h *History) TotalScans() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalScans
}

// TotalDefects is the number of detections recorded over the session
// lifetime.
func (h *History) TotalDefects() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalDefects
}

// Clear empties the log and resets the counters.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = nil
	h.totalScans = 0
	h.totalDefects = 0
	h.lastSeen = time.Now()
}

func (h *History) touch() {
	h.mu.Lock()
	h.lastSeen = time.Now()
	h.mu.Unlock()
}

func (h *History) idleSince() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastSeen
}
