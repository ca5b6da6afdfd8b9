// SPDX-License-Identifier: MIT
package stems

import (
	"math"
	"testing"

	"mixengine/internal/analysis"
	"mixengine/pkg/testsignal"
)

const testSampleRate = 44100.0

func newTestSeparator() *Separator {
	return NewSeparator(testSampleRate, analysis.Hann)
}

func TestAdditiveInvariant(t *testing.T) {
	// Moderate amplitude keeps every stem clamp disengaged, so the
	// residual construction must reproduce the input exactly.
	samples := testsignal.HarmonicStack(int(testSampleRate)*2, testSampleRate, 0.3)

	set := newTestSeparator().Separate(samples)
	for i := range samples {
		sum := set.Vocals[i] + set.Drums[i] + set.Bass[i] + set.Melody[i]
		if math.Abs(sum-samples[i]) > 1e-9 {
			t.Fatalf("sample %d: stems sum to %g, original %g", i, sum, samples[i])
		}
	}
}

func TestStemLengthsMatchSource(t *testing.T) {
	samples := testsignal.Sine(10000, testSampleRate, 440, 0.4)

	set := newTestSeparator().Separate(samples)
	for name, stem := range map[string][]float64{
		"vocals": set.Vocals,
		"drums":  set.Drums,
		"bass":   set.Bass,
		"melody": set.Melody,
	} {
		if len(stem) != len(samples) {
			t.Errorf("%s has %d samples, want %d", name, len(stem), len(samples))
		}
	}
}

func TestStemSamplesClamped(t *testing.T) {
	// Full-scale input; every stem must stay inside [-1, 1].
	samples := testsignal.HarmonicStack(int(testSampleRate), testSampleRate, 1.0)

	set := newTestSeparator().Separate(samples)
	for name, stem := range map[string][]float64{
		"vocals": set.Vocals,
		"drums":  set.Drums,
		"bass":   set.Bass,
		"melody": set.Melody,
	} {
		for i, s := range stem {
			if s < -1 || s > 1 || math.IsNaN(s) {
				t.Fatalf("%s sample %d out of range: %g", name, i, s)
			}
		}
	}
}

func TestTransientsLandInDrums(t *testing.T) {
	// A lone click in an otherwise quiet buffer is a textbook transient.
	samples := testsignal.Silence(8192)
	for i := 4096; i < 4096+32; i++ {
		samples[i] = 0.8
	}

	set := newTestSeparator().Separate(samples)
	var drumPeak float64
	for _, s := range set.Drums {
		if math.Abs(s) > drumPeak {
			drumPeak = math.Abs(s)
		}
	}
	if drumPeak == 0 {
		t.Error("expected the click to register in the drum stem")
	}
	// 70% of the click amplitude is attributed to drums.
	if math.Abs(drumPeak-0.8*0.7) > 1e-9 {
		t.Errorf("drum peak = %g, want %g", drumPeak, 0.8*0.7)
	}
}

func TestSeparateEmptyBuffer(t *testing.T) {
	set := newTestSeparator().Separate(nil)
	if len(set.Vocals) != 0 || len(set.Melody) != 0 {
		t.Error("empty input must yield empty stems")
	}
}

func TestBassTracksLowFrequencies(t *testing.T) {
	low := testsignal.Sine(int(testSampleRate), testSampleRate, 60, 0.5)
	high := testsignal.Sine(int(testSampleRate), testSampleRate, 5000, 0.5)

	sep := newTestSeparator()
	bassLow := maxAbs(sep.Separate(low).Bass)
	bassHigh := maxAbs(sep.Separate(high).Bass)
	if bassLow <= bassHigh {
		t.Errorf("bass stem for a 60Hz tone (%g) should exceed a 5kHz tone (%g)", bassLow, bassHigh)
	}
}

func maxAbs(buf []float64) float64 {
	var m float64
	for _, v := range buf {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
