// SPDX-License-Identifier: MIT

// Package mix scores pairs of analyzed tracks for mixability and computes
// the concrete parameters for harmonic transitions.
package mix

import (
	"math"
	"sort"

	"mixengine/internal/analysis"
)

// TransitionType names the recommended way to move between two tracks.
type TransitionType string

const (
	TransitionBeatMatch  TransitionType = "beat_match"
	TransitionHarmonic   TransitionType = "harmonic"
	TransitionEnergyRamp TransitionType = "energy_ramp"
	TransitionBreakDown  TransitionType = "break_down"
)

// Scoring constants.
const (
	halfTimeTolerance  = 2.0  // BPM slack around double/half tempo.
	bpmDecayRange      = 50.0 // Zero credit beyond this BPM difference.
	tempoSyncOverBPM   = 5.0  // |BPM diff| above this adds tempo_sync.
	harmonicShiftBelow = 0.6  // Key score below this adds harmonic_shift.
	filterSweepBelow   = 0.7  // Energy score below this adds filter_sweep.

	confidenceFloor = 0.7 // Batch suggestions keep only scores above this.
	maxSuggestions  = 5
)

// ComponentScores is the per-dimension breakdown behind a suggestion's
// confidence, carried for dashboard display.
type ComponentScores struct {
	BPM    float64 `json:"bpm"`
	Key    float64 `json:"key"`
	Energy float64 `json:"energy"`
}

// MixSuggestion is the transient result of scoring one transition. It is
// produced per request and never cached.
type MixSuggestion struct {
	FromTrack       string          `json:"fromTrack"`
	ToTrack         string          `json:"toTrack"`
	TransitionPoint float64         `json:"transitionPoint"`
	TransitionType  TransitionType  `json:"transitionType"`
	Confidence      float64         `json:"confidence"`
	Effects         []string        `json:"effects"`
	Scores          ComponentScores `json:"scores"`
}

// ScoreTransition scores moving from one track into another. Direction
// matters: score(A,B) and score(B,A) are computed independently. A nil
// descriptor on either side yields the defined fallback, a
// zero-confidence suggestion with no effects.
func ScoreTransition(from, to *analysis.TrackDescriptor) MixSuggestion {
	s := MixSuggestion{
		TransitionType: TransitionBeatMatch,
		Effects:        []string{},
	}
	if from != nil {
		s.FromTrack = from.TrackID
	}
	if to != nil {
		s.ToTrack = to.TrackID
	}
	if from == nil || to == nil {
		return s
	}

	s.Scores = ComponentScores{
		BPM:    BPMCompatibility(from.TempoBPM, to.TempoBPM),
		Key:    KeyCompatibility(from.Key, to.Key),
		Energy: math.Max(0, 1-math.Abs(from.Energy-to.Energy)),
	}
	s.Confidence = (s.Scores.BPM + s.Scores.Key + s.Scores.Energy) / 3

	// Priority order matters: a harmonically compatible pair is always a
	// harmonic transition, even when the energies also differ.
	switch {
	case s.Scores.Key > 0.8:
		s.TransitionType = TransitionHarmonic
	case to.Energy > from.Energy*1.2:
		s.TransitionType = TransitionEnergyRamp
	case to.Energy < from.Energy*0.8:
		s.TransitionType = TransitionBreakDown
	default:
		s.TransitionType = TransitionBeatMatch
	}

	if math.Abs(from.TempoBPM-to.TempoBPM) > tempoSyncOverBPM {
		s.Effects = append(s.Effects, "tempo_sync")
	}
	if s.Scores.Key < harmonicShiftBelow {
		s.Effects = append(s.Effects, "harmonic_shift")
	}
	if s.Scores.Energy < filterSweepBelow {
		s.Effects = append(s.Effects, "filter_sweep")
	}

	s.TransitionPoint = transitionPoint(from)
	return s
}

// BPMCompatibility scores two tempos: equal 1.0; within the tolerance of
// double or half tempo 0.9; otherwise linear decay reaching zero at a
// 50 BPM difference.
func BPMCompatibility(fromBPM, toBPM float64) float64 {
	if fromBPM == toBPM {
		return 1.0
	}
	if math.Abs(fromBPM*2-toBPM) <= halfTimeTolerance ||
		math.Abs(toBPM*2-fromBPM) <= halfTimeTolerance {
		return 0.9
	}
	return math.Max(0, 1-math.Abs(fromBPM-toBPM)/bpmDecayRange)
}

// transitionPoint prefers the end of the source track's last breakdown or
// verse phrase; without one it falls back to the beat at the 75th
// percentile index.
func transitionPoint(from *analysis.TrackDescriptor) float64 {
	for i := len(from.Phrases) - 1; i >= 0; i-- {
		if t := from.Phrases[i].Type; t == analysis.PhraseBreakdown || t == analysis.PhraseVerse {
			return from.Phrases[i].End
		}
	}
	if len(from.BeatGrid) == 0 {
		return 0
	}
	return from.BeatGrid[len(from.BeatGrid)*3/4]
}

// SuggestMixes scores every candidate against the current track, keeps
// those with confidence above 0.7 and returns at most five, sorted by
// descending confidence. The sort is stable: equal-confidence candidates
// retain input order.
func SuggestMixes(current *analysis.TrackDescriptor, candidates []*analysis.TrackDescriptor) []MixSuggestion {
	suggestions := []MixSuggestion{}
	for _, cand := range candidates {
		if s := ScoreTransition(current, cand); s.Confidence > confidenceFloor {
			suggestions = append(suggestions, s)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
