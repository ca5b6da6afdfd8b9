// SPDX-License-Identifier: MIT

// Package analysis derives musical descriptors (tempo, key, energy,
// structure) from raw mono sample buffers. Analysis is a pure function of
// the input; caching happens in the session layer.
package analysis

import (
	"fmt"
	"math"

	"mixengine/internal/log"
)

// Tempo search bounds and analysis defaults.
const (
	MinTempoBPM = 60
	MaxTempoBPM = 200

	// DefaultTempoBPM is reported for buffers too short to analyze.
	DefaultTempoBPM = 120
	// DefaultKey is reported for buffers too short to analyze.
	DefaultKey = "C"

	tempoWindowSeconds = 4.0
	phraseBeats        = 16
	breakdownThreshold = 0.1
	buildupThreshold   = 0.7
	loudnessEpsilon    = 1e-10
)

// Pitch classes indexed relative to A, per round(12*log2(f/440)) mod 12.
// Enharmonic spelling is fixed to sharps.
var pitchClassNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// PitchClassIndex returns the 0-11 index for a key name, or -1 if the
// name is not one of the 12 sharp-spelled pitch classes.
func PitchClassIndex(key string) int {
	for i, name := range pitchClassNames {
		if name == key {
			return i
		}
	}
	return -1
}

// PhraseType classifies a 16-beat phrase by its mean amplitude.
type PhraseType string

const (
	PhraseBreakdown PhraseType = "breakdown"
	PhraseBuildup   PhraseType = "buildup"
	PhraseVerse     PhraseType = "verse"
)

// Phrase is a structural segment covering 16 consecutive beats.
type Phrase struct {
	Start float64    `json:"start"`
	End   float64    `json:"end"`
	Type  PhraseType `json:"type"`
}

// TrackDescriptor is the immutable analysis result for one track.
type TrackDescriptor struct {
	TrackID      string    `json:"trackId"`
	TempoBPM     float64   `json:"tempoBPM"`
	Key          string    `json:"key"`
	Energy       float64   `json:"energy"`
	Danceability float64   `json:"danceability"`
	Valence      float64   `json:"valence"`
	LoudnessDB   float64   `json:"loudnessDb"`
	BeatGrid     []float64 `json:"beatGrid"`
	Phrases      []Phrase  `json:"phrases"`
	Duration     float64   `json:"duration"`
	SampleRate   float64   `json:"sampleRate"`
}

// Analyzer derives TrackDescriptors from sample buffers. It carries only
// immutable configuration and is safe for concurrent use.
type Analyzer struct {
	sampleRate float64
	windowSize int
	windowType WindowFunc
}

// NewAnalyzer creates an Analyzer. windowSize is the spectrum frame size
// and must be a power of 2.
func NewAnalyzer(sampleRate float64, windowSize int, windowType WindowFunc) (*Analyzer, error) {
	if _, err := NewSpectrum(windowSize, sampleRate, windowType); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return &Analyzer{
		sampleRate: sampleRate,
		windowSize: windowSize,
		windowType: windowType,
	}, nil
}

// SampleRate returns the configured sample rate (Hz).
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// WindowSize returns the spectrum frame size in samples.
func (a *Analyzer) WindowSize() int { return a.windowSize }

// WindowType returns the configured window function.
func (a *Analyzer) WindowType() WindowFunc { return a.windowType }

// Analyze derives the full descriptor for a sample buffer. Buffers shorter
// than one analysis window yield a neutral descriptor (120 BPM, key C,
// zeroed intensity fields) rather than an error, so downstream code never
// needs to nil-check.
func (a *Analyzer) Analyze(trackID string, samples []float64) *TrackDescriptor {
	if len(samples) < a.windowSize {
		log.Debugf("analysis: buffer for %q too short (%d samples), returning neutral descriptor",
			trackID, len(samples))
		return a.neutralDescriptor(trackID, len(samples))
	}

	duration := float64(len(samples)) / a.sampleRate
	tempo := a.detectTempo(samples)
	key, valence := a.analyzeSpectral(samples)
	rms := rootMeanSquare(samples)
	grid := a.beatGrid(len(samples), tempo)

	d := &TrackDescriptor{
		TrackID:      trackID,
		TempoBPM:     tempo,
		Key:          key,
		Energy:       rms,
		Danceability: a.danceability(samples, tempo),
		Valence:      valence,
		LoudnessDB:   20 * math.Log10(rms+loudnessEpsilon),
		BeatGrid:     grid,
		Phrases:      a.segmentPhrases(samples, grid, duration),
		Duration:     duration,
		SampleRate:   a.sampleRate,
	}
	log.Debugf("analysis: %q -> %.0f BPM, key %s, %d beats, %d phrases",
		trackID, d.TempoBPM, d.Key, len(d.BeatGrid), len(d.Phrases))
	return d
}

// neutralDescriptor is the documented fallback for empty or too-short
// buffers: defaults instead of an error.
func (a *Analyzer) neutralDescriptor(trackID string, numSamples int) *TrackDescriptor {
	return &TrackDescriptor{
		TrackID:      trackID,
		TempoBPM:     DefaultTempoBPM,
		Key:          DefaultKey,
		Danceability: 0.5,
		LoudnessDB:   20 * math.Log10(loudnessEpsilon),
		BeatGrid:     []float64{},
		Phrases:      []Phrase{},
		Duration:     float64(numSamples) / a.sampleRate,
		SampleRate:   a.sampleRate,
	}
}

// detectTempo runs an autocorrelation search over integer BPM candidates.
// For each candidate the lag of one beat is correlated against a window of
// up to 4 seconds; the candidate with the highest accumulated correlation
// wins, ties going to the lowest BPM (strict > on an ascending scan).
func (a *Analyzer) detectTempo(samples []float64) float64 {
	window := int(tempoWindowSeconds * a.sampleRate)
	if window > len(samples) {
		window = len(samples)
	}

	bestBPM := DefaultTempoBPM
	bestScore := 0.0
	for bpm := MinTempoBPM; bpm <= MaxTempoBPM; bpm++ {
		lag := int(a.sampleRate * 60 / float64(bpm))
		if lag <= 0 || lag >= window {
			continue
		}
		score := 0.0
		for i := 0; i+lag < window; i++ {
			score += math.Abs(samples[i] * samples[i+lag])
		}
		if score > bestScore {
			bestScore = score
			bestBPM = bpm
		}
	}
	return float64(bestBPM)
}

// analyzeSpectral walks non-overlapping windows once, accumulating the
// chromagram for key detection and the positive-band energy for valence.
func (a *Analyzer) analyzeSpectral(samples []float64) (key string, valence float64) {
	spec, err := NewSpectrum(a.windowSize, a.sampleRate, a.windowType)
	if err != nil {
		// Constructor parameters were validated in NewAnalyzer.
		log.Errorf("analysis: spectrum setup failed: %v", err)
		return DefaultKey, 0
	}

	var chroma [12]float64
	var valenceSum float64
	numWindows := 0

	for start := 0; start+a.windowSize <= len(samples); start += a.windowSize {
		mags := spec.Magnitudes(samples[start : start+a.windowSize])

		// Skip bin 0: DC has no pitch.
		for bin := 1; bin < len(mags); bin++ {
			if pc := pitchClass(spec.BinFrequency(bin)); pc >= 0 {
				chroma[pc] += mags[bin]
			}
		}

		// The two "positive" bands drive valence.
		valenceSum += spec.BandEnergy(mags, 200, 800)
		valenceSum += spec.BandEnergy(mags, 2000, 4000)
		numWindows++
	}

	best := 0
	for i := 1; i < 12; i++ {
		if chroma[i] > chroma[best] {
			best = i
		}
	}
	if numWindows > 0 {
		valence = clamp01(valenceSum / float64(numWindows))
	}
	return pitchClassNames[best], valence
}

// pitchClass maps a frequency to one of 12 pitch classes relative to A440,
// or -1 for non-positive frequencies.
func pitchClass(freq float64) int {
	if freq <= 0 {
		return -1
	}
	n := int(math.Round(12 * math.Log2(freq/440)))
	return ((n % 12) + 12) % 12
}

// beatGrid emits a timestamp every beat period starting at sample 0.
func (a *Analyzer) beatGrid(numSamples int, bpm float64) []float64 {
	step := a.sampleRate * 60 / bpm
	grid := make([]float64, 0, int(float64(numSamples)/step)+1)
	for pos := 0.0; pos < float64(numSamples); pos += step {
		grid = append(grid, pos/a.sampleRate)
	}
	return grid
}

// segmentPhrases groups the beat grid into consecutive 16-beat windows and
// classifies each by mean absolute amplitude. A trailing window with fewer
// than 16 beats is dropped.
func (a *Analyzer) segmentPhrases(samples []float64, grid []float64, duration float64) []Phrase {
	phrases := []Phrase{}
	for i := 0; i+phraseBeats <= len(grid); i += phraseBeats {
		start := grid[i]
		end := duration
		if i+phraseBeats < len(grid) {
			end = grid[i+phraseBeats]
		}

		lo := int(start * a.sampleRate)
		hi := int(end * a.sampleRate)
		if hi > len(samples) {
			hi = len(samples)
		}
		mean := meanAbs(samples[lo:hi])

		typ := PhraseVerse
		switch {
		case mean < breakdownThreshold:
			typ = PhraseBreakdown
		case mean > buildupThreshold:
			typ = PhraseBuildup
		}
		phrases = append(phrases, Phrase{Start: start, End: end, Type: typ})
	}
	return phrases
}

// danceability averages a BPM-proximity score (peaking at 128 BPM) with a
// rhythmic-stability proxy: mean short-window energy over 0.1s frames.
func (a *Analyzer) danceability(samples []float64, bpm float64) float64 {
	bpmScore := clamp01(1 - math.Abs(bpm-128)/128)

	frame := int(a.sampleRate / 10)
	var sum float64
	n := 0
	for start := 0; start+frame <= len(samples); start += frame {
		sum += rootMeanSquare(samples[start : start+frame])
		n++
	}
	stability := 0.0
	if n > 0 {
		stability = sum / float64(n)
	}
	return clamp01((bpmScore + stability) / 2)
}

func rootMeanSquare(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func meanAbs(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += math.Abs(s)
	}
	return sum / float64(len(samples))
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
