// SPDX-License-Identifier: MIT

// Package crowd maintains the live crowd-feedback state that biases mix
// recommendations. The metrics record is the engine's only shared mutable
// state: every read-modify-write goes through the manager's lock, never
// through package-level globals.
package crowd

import (
	"math/rand"
	"sync"
	"time"

	"mixengine/internal/log"
)

// driftMagnitude bounds the random walk applied by each drift tick.
const driftMagnitude = 0.05

// Metrics is the process-wide crowd state. Energy, engagement and volume
// preference are clamped to [0, 1] on every write.
type Metrics struct {
	Energy           float64  `json:"energy"`
	Engagement       float64  `json:"engagement"`
	GenrePreference  []string `json:"genrePreference"`
	TempoPreference  float64  `json:"tempoPreference"`
	VolumePreference float64  `json:"volumePreference"`
}

// Feedback is an explicit observation from the floor.
type Feedback struct {
	DanceFloorActivity   float64  `json:"danceFloorActivity"`
	DanceFloorEnthusiasm float64  `json:"danceFloorEnthusiasm"`
	RequestedGenres      []string `json:"requestedGenres"`
	RequestedTempo       float64  `json:"requestedTempo"`
}

// Manager owns the metrics record and serializes all mutations. Safe for
// concurrent use.
type Manager struct {
	mu      sync.Mutex
	metrics Metrics
	rng     *rand.Rand
}

// NewManager creates a Manager with neutral starting metrics.
func NewManager() *Manager {
	return &Manager{
		metrics: Metrics{
			Energy:           0.5,
			Engagement:       0.5,
			GenrePreference:  []string{"house", "techno"},
			TempoPreference:  128,
			VolumePreference: 0.7,
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Apply ingests a feedback event, overwriting energy and engagement and,
// when provided, the genre and tempo preferences. Returns the updated
// snapshot.
func (m *Manager) Apply(fb Feedback) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.Energy = clamp01(fb.DanceFloorActivity)
	m.metrics.Engagement = clamp01(fb.DanceFloorEnthusiasm)
	if len(fb.RequestedGenres) > 0 {
		m.metrics.GenrePreference = append([]string(nil), fb.RequestedGenres...)
	}
	if fb.RequestedTempo > 0 {
		m.metrics.TempoPreference = fb.RequestedTempo
	}

	log.Debugf("crowd: feedback applied, energy %.2f engagement %.2f",
		m.metrics.Energy, m.metrics.Engagement)
	return m.snapshotLocked()
}

// Drift nudges energy and engagement by a bounded random delta,
// simulating organic change between explicit feedback events. Returns the
// updated snapshot.
func (m *Manager) Drift() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.Energy = clamp01(m.metrics.Energy + m.delta())
	m.metrics.Engagement = clamp01(m.metrics.Engagement + m.delta())
	return m.snapshotLocked()
}

// delta returns a uniform value in [-driftMagnitude, driftMagnitude].
// Callers hold the lock.
func (m *Manager) delta() float64 {
	return (m.rng.Float64()*2 - 1) * driftMagnitude
}

// Snapshot returns a copy of the current metrics.
func (m *Manager) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Metrics {
	out := m.metrics
	out.GenrePreference = append([]string(nil), m.metrics.GenrePreference...)
	return out
}

// Recommendation turns the current metrics into exactly one
// natural-language suggestion, evaluated in priority order.
func (m *Manager) Recommendation() string {
	return Recommend(m.Snapshot())
}

// Recommend is the pure recommendation function behind Recommendation.
func Recommend(metrics Metrics) string {
	switch {
	case metrics.Energy < 0.3:
		return "Crowd energy is low - increase the tempo and bring the volume up"
	case metrics.Energy > 0.8:
		return "Crowd is peaking - maintain the current momentum"
	case metrics.Engagement < 0.4:
		return "Engagement is fading - consider changing genre or adding vocals"
	default:
		return "Crowd is steady - continue the current style"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
