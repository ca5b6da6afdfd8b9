// SPDX-License-Identifier: MIT
package mix

import (
	"errors"
	"fmt"

	"mixengine/internal/analysis"
)

// ErrAnalysisRequired is returned when a harmonic-mix computation is
// requested for a track that has not been analyzed yet. Unlike the
// scorer's silent zero-confidence fallback, this path is explicitly
// requested and therefore reports the missing prerequisite.
var ErrAnalysisRequired = errors.New("analysis required")

// Presentation defaults attached to every harmonic mix.
const transitionDurationBeats = 32

func defaultEffectChain() []string {
	return []string{"highpass@100Hz", "lowpass@8000Hz", "reverb@0.3"}
}

// HarmonicMixParameters are the concrete knobs for executing a harmonic
// transition between two analyzed tracks. Transient; never cached.
type HarmonicMixParameters struct {
	FromTrack               string   `json:"fromTrack"`
	ToTrack                 string   `json:"toTrack"`
	KeyShiftSemitones       int      `json:"keyShiftSemitones"`
	TempoSyncPercent        float64  `json:"tempoSyncPercent"`
	TransitionDurationBeats int      `json:"transitionDurationBeats"`
	Effects                 []string `json:"effects"`
}

// HarmonicParameters computes the semitone shift and tempo-sync
// percentage for moving between two descriptors.
func HarmonicParameters(from, to *analysis.TrackDescriptor) (*HarmonicMixParameters, error) {
	if from == nil || to == nil {
		return nil, ErrAnalysisRequired
	}

	fromPC := analysis.PitchClassIndex(from.Key)
	toPC := analysis.PitchClassIndex(to.Key)
	if fromPC < 0 || toPC < 0 {
		return nil, fmt.Errorf("unknown key %q or %q", from.Key, to.Key)
	}

	return &HarmonicMixParameters{
		FromTrack:               from.TrackID,
		ToTrack:                 to.TrackID,
		KeyShiftSemitones:       keyShift(fromPC, toPC),
		TempoSyncPercent:        (to.TempoBPM/from.TempoBPM - 1) * 100,
		TransitionDurationBeats: transitionDurationBeats,
		Effects:                 defaultEffectChain(),
	}, nil
}

// keyShift is the signed shortest path between two pitch classes on the
// 12-tone circle, in [-6, 6].
func keyShift(fromPC, toPC int) int {
	d := toPC - fromPC
	if d > 6 {
		d -= 12
	}
	if d < -6 {
		d += 12
	}
	return d
}
