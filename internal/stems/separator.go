// SPDX-License-Identifier: MIT

// Package stems approximates source separation of a sample buffer into
// vocal, drum, bass and melody components using frequency-banded
// heuristics. The contract is the additive residual invariant
// (vocals+drums+bass+melody == original) and the windowed heuristics,
// not perceptual quality.
package stems

import (
	"math"

	"mixengine/internal/analysis"
	"mixengine/internal/log"
)

// Heuristic bands and gains.
const (
	vocalWindow  = 1024
	vocalLowHz   = 300
	vocalHighHz  = 3400
	vocalGain    = 0.1
	drumWindow   = 512
	drumRatio    = 2.0 // Transient: sample magnitude vs local average.
	drumFraction = 0.7 // Share of the sample attributed to drums.
	bassWindow   = 2048
	bassHighHz   = 250
	bassGain     = 0.3
)

// StemSet holds four buffers of equal length to the source. By
// construction melody is the residual original-vocals-drums-bass.
type StemSet struct {
	Vocals []float64 `json:"vocals"`
	Drums  []float64 `json:"drums"`
	Bass   []float64 `json:"bass"`
	Melody []float64 `json:"melody"`
}

// Separator derives StemSets from sample buffers. Immutable after
// construction and safe for concurrent use.
type Separator struct {
	sampleRate float64
	windowType analysis.WindowFunc
}

// NewSeparator creates a Separator for buffers at the given sample rate.
func NewSeparator(sampleRate float64, windowType analysis.WindowFunc) *Separator {
	return &Separator{sampleRate: sampleRate, windowType: windowType}
}

// WindowType returns the configured window function.
func (s *Separator) WindowType() analysis.WindowFunc { return s.windowType }

// Separate decomposes samples into four stems. Every per-stem sample is
// clamped to [-1, 1]; the melody residual is computed after the other
// three stems so the additive invariant holds whenever the clamps do not
// engage (they cannot for buffers within [-1, 1] and moderate band
// energy).
func (s *Separator) Separate(samples []float64) *StemSet {
	n := len(samples)
	set := &StemSet{
		Vocals: make([]float64, n),
		Drums:  make([]float64, n),
		Bass:   make([]float64, n),
		Melody: make([]float64, n),
	}
	if n == 0 {
		return set
	}

	s.bandEnvelope(samples, set.Vocals, vocalWindow, vocalLowHz, vocalHighHz, vocalGain)
	s.transients(samples, set.Drums)
	s.bandEnvelope(samples, set.Bass, bassWindow, 0, bassHighHz, bassGain)

	for i := range samples {
		set.Melody[i] = clampSample(samples[i] - set.Vocals[i] - set.Drums[i] - set.Bass[i])
	}

	log.Debugf("stems: separated %d samples", n)
	return set
}

// bandEnvelope fills dst with the banded spectral energy of each
// non-overlapping window, scaled by gain. Every sample in a window gets
// the window's value; a trailing partial window reuses the last full
// window's spectrum over its remaining samples.
func (s *Separator) bandEnvelope(samples, dst []float64, windowSize int, lowHz, highHz, gain float64) {
	spec, err := analysis.NewSpectrum(windowSize, s.sampleRate, s.windowType)
	if err != nil {
		log.Errorf("stems: spectrum setup failed: %v", err)
		return
	}

	for start := 0; start < len(samples); start += windowSize {
		end := start + windowSize
		if end > len(samples) {
			end = len(samples)
		}
		mags := spec.Magnitudes(samples[start:end])
		v := clampSample(spec.BandEnergy(mags, lowHz, highHz) * gain)
		for i := start; i < end; i++ {
			dst[i] = v
		}
	}
}

// transients fills dst with the drum estimate: samples whose magnitude
// exceeds drumRatio times the local average magnitude contribute
// drumFraction of their amplitude.
func (s *Separator) transients(samples, dst []float64) {
	n := len(samples)

	// Prefix sums of |x| make the centered moving average O(1) per sample.
	prefix := make([]float64, n+1)
	for i, v := range samples {
		prefix[i+1] = prefix[i] + math.Abs(v)
	}

	half := drumWindow / 2
	for i := range samples {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n {
			hi = n
		}
		avg := (prefix[hi] - prefix[lo]) / float64(hi-lo)
		if math.Abs(samples[i]) > drumRatio*avg && avg > 0 {
			dst[i] = clampSample(samples[i] * drumFraction)
		}
	}
}

func clampSample(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
