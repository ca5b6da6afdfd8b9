// SPDX-License-Identifier: MIT
package session

import (
	"strings"
	"testing"

	"mixengine/internal/analysis"
	"mixengine/internal/crowd"
	"mixengine/internal/stems"
	"mixengine/pkg/testsignal"
)

const (
	testSampleRate = 44100.0
	testWindowSize = 1024
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	analyzer, err := analysis.NewAnalyzer(testSampleRate, testWindowSize, analysis.Hann)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return NewCoordinator(analyzer, stems.NewSeparator(testSampleRate, analysis.Hann), crowd.NewManager())
}

func TestAnalyzeTrackCacheIdempotence(t *testing.T) {
	c := newTestCoordinator(t)
	samples := testsignal.ClickTrack(int(testSampleRate)*5, testSampleRate, 120)

	first, hit := c.AnalyzeTrack("track-1", samples)
	if hit {
		t.Fatal("first call must be a cache miss")
	}
	// Passing no samples proves the cached result is served without
	// touching the analyzer again.
	second, hit := c.AnalyzeTrack("track-1", nil)
	if !hit {
		t.Fatal("second call must be a cache hit")
	}
	if first != second {
		t.Error("cache hit must return the identical descriptor")
	}
}

func TestSeparateStemsCacheIdempotence(t *testing.T) {
	c := newTestCoordinator(t)
	samples := testsignal.Sine(10000, testSampleRate, 440, 0.4)

	first, hit := c.SeparateStems("track-1", samples)
	if hit {
		t.Fatal("first call must be a cache miss")
	}
	second, hit := c.SeparateStems("track-1", nil)
	if !hit {
		t.Fatal("second call must be a cache hit")
	}
	if first != second {
		t.Error("cache hit must return the identical stem set")
	}
}

func TestInvalidateForcesRecompute(t *testing.T) {
	c := newTestCoordinator(t)
	samples := testsignal.Sine(10000, testSampleRate, 440, 0.4)

	first, _ := c.AnalyzeTrack("track-1", samples)
	c.Invalidate("track-1")

	second, hit := c.AnalyzeTrack("track-1", samples)
	if hit {
		t.Error("post-invalidate call must recompute")
	}
	if first == second {
		t.Error("recompute must produce a fresh descriptor")
	}
	if _, ok := c.Descriptor("track-1"); !ok {
		t.Error("recomputed descriptor must be cached again")
	}
}

// The batch path degrades unanalyzed tracks to zero confidence instead
// of erroring, unlike the harmonic path.
func TestSuggestMixesUnanalyzedFallback(t *testing.T) {
	c := newTestCoordinator(t)

	got := c.SuggestMixes("never-analyzed", []string{"also-never-analyzed"})
	if len(got) != 0 {
		t.Errorf("zero-confidence pairs must be filtered, got %d suggestions", len(got))
	}
}

func TestHarmonicMixRequiresAnalysis(t *testing.T) {
	c := newTestCoordinator(t)

	if _, err := c.HarmonicMix("a", "b"); err == nil {
		t.Error("harmonic mix without prior analysis must fail")
	}

	c.AnalyzeTrack("a", testsignal.Sine(int(testSampleRate), testSampleRate, 440, 0.4))
	c.AnalyzeTrack("b", testsignal.Sine(int(testSampleRate), testSampleRate, 440, 0.4))
	if _, err := c.HarmonicMix("a", "b"); err != nil {
		t.Errorf("harmonic mix with both tracks analyzed: %v", err)
	}
}

func TestVoiceCommandDispatch(t *testing.T) {
	c := newTestCoordinator(t)

	cases := []struct {
		name       string
		command    string
		wantAction string
	}{
		{"energetic filter", "play something energetic", "play_energetic"},
		{"smooth transition", "give me a smooth transition", "smooth_transition"},
		{"bass drop", "trigger the bass drop now", "bass_drop"},
		{"crowd report", "how is the crowd doing", "crowd_report"},
		{"case insensitive", "PLAY SOMETHING ENERGETIC", "play_energetic"},
		{"fallback", "order a pizza", "help"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := c.VoiceCommand(tc.command)
			if resp.Action != tc.wantAction {
				t.Errorf("Action = %q, want %q", resp.Action, tc.wantAction)
			}
			if resp.Message == "" {
				t.Error("every response carries a message")
			}
		})
	}
}

func TestVoiceHelpListsPhrases(t *testing.T) {
	c := newTestCoordinator(t)

	resp := c.VoiceCommand("unknown")
	for _, phrase := range []string{"energetic", "smooth", "bass drop", "crowd"} {
		if !strings.Contains(resp.Message, phrase) {
			t.Errorf("help message %q missing phrase %q", resp.Message, phrase)
		}
	}
}

func TestVoiceCrowdReportCarriesMetrics(t *testing.T) {
	c := newTestCoordinator(t)
	c.Crowd().Apply(crowd.Feedback{DanceFloorActivity: 0.1, DanceFloorEnthusiasm: 0.1})

	resp := c.VoiceCommand("check the crowd")
	if resp.Metrics == nil {
		t.Fatal("crowd report must include a metrics snapshot")
	}
	if resp.Metrics.Energy != 0.1 {
		t.Errorf("Energy = %f, want 0.1", resp.Metrics.Energy)
	}
	if resp.Message != crowd.Recommend(*resp.Metrics) {
		t.Error("report message must match the recommendation for the snapshot")
	}
}
