// SPDX-License-Identifier: MIT
package crowd

import (
	"math"
	"sync"
	"testing"
)

func TestApplyClampsInputs(t *testing.T) {
	m := NewManager()

	got := m.Apply(Feedback{DanceFloorActivity: 1.8, DanceFloorEnthusiasm: -0.4})
	if got.Energy != 1 {
		t.Errorf("Energy = %f, want clamped 1", got.Energy)
	}
	if got.Engagement != 0 {
		t.Errorf("Engagement = %f, want clamped 0", got.Engagement)
	}
}

func TestApplyPreferences(t *testing.T) {
	m := NewManager()

	got := m.Apply(Feedback{
		DanceFloorActivity:   0.6,
		DanceFloorEnthusiasm: 0.7,
		RequestedGenres:      []string{"drum and bass"},
		RequestedTempo:       174,
	})
	if len(got.GenrePreference) != 1 || got.GenrePreference[0] != "drum and bass" {
		t.Errorf("GenrePreference = %v", got.GenrePreference)
	}
	if got.TempoPreference != 174 {
		t.Errorf("TempoPreference = %f, want 174", got.TempoPreference)
	}

	// Empty follow-up feedback keeps the earlier preferences.
	got = m.Apply(Feedback{DanceFloorActivity: 0.5, DanceFloorEnthusiasm: 0.5})
	if len(got.GenrePreference) != 1 || got.TempoPreference != 174 {
		t.Error("empty preference fields must not reset earlier values")
	}
}

// Ten drift ticks on an untouched manager: metrics stay in bounds and
// never go NaN.
func TestDriftStaysBounded(t *testing.T) {
	m := NewManager()

	for i := 0; i < 10; i++ {
		got := m.Drift()
		if got.Energy < 0 || got.Energy > 1 || math.IsNaN(got.Energy) {
			t.Fatalf("tick %d: Energy = %f", i, got.Energy)
		}
		if got.Engagement < 0 || got.Engagement > 1 || math.IsNaN(got.Engagement) {
			t.Fatalf("tick %d: Engagement = %f", i, got.Engagement)
		}
	}
}

// Interleaved feedback and drift from many goroutines must never observe
// or produce out-of-range metrics.
func TestConcurrentMutationStaysClamped(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if i%2 == 0 {
					m.Apply(Feedback{
						DanceFloorActivity:   float64(seed+i) * 0.01,
						DanceFloorEnthusiasm: float64(seed-i) * 0.01,
					})
				} else {
					m.Drift()
				}
			}
		}(g)
	}
	wg.Wait()

	got := m.Snapshot()
	if got.Energy < 0 || got.Energy > 1 || got.Engagement < 0 || got.Engagement > 1 {
		t.Errorf("metrics escaped [0,1]: %+v", got)
	}
}

func TestRecommendPriorityOrder(t *testing.T) {
	cases := []struct {
		name    string
		metrics Metrics
		want    string
	}{
		{"low energy wins first", Metrics{Energy: 0.1, Engagement: 0.1},
			"Crowd energy is low - increase the tempo and bring the volume up"},
		{"high energy before engagement", Metrics{Energy: 0.9, Engagement: 0.1},
			"Crowd is peaking - maintain the current momentum"},
		{"low engagement", Metrics{Energy: 0.5, Engagement: 0.2},
			"Engagement is fading - consider changing genre or adding vocals"},
		{"steady state", Metrics{Energy: 0.5, Engagement: 0.6},
			"Crowd is steady - continue the current style"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Recommend(tc.metrics); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager()
	snap := m.Snapshot()
	snap.GenrePreference[0] = "mutated"

	if m.Snapshot().GenrePreference[0] == "mutated" {
		t.Error("snapshot must not alias internal state")
	}
}
