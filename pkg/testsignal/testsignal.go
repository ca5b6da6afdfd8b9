// SPDX-License-Identifier: MIT

// Package testsignal generates deterministic sample buffers for tests and
// demos. All buffers are mono float64 in [-1, 1].
package testsignal

import "math"

// Sine returns n samples of a sine wave at the given frequency and amplitude.
func Sine(n int, sampleRate, frequency, amplitude float64) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buf
}

// HarmonicStack returns a 440Hz fundamental plus two harmonics, the same
// signal used across the analysis benchmarks. Peak amplitude stays below
// the given amplitude.
func HarmonicStack(n int, sampleRate, amplitude float64) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		t := float64(i) / sampleRate
		s := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buf[i] = amplitude * s
	}
	return buf
}

// ClickTrack returns n samples of silence with short rectangular clicks at
// the given BPM, starting at sample 0. Useful for exercising tempo
// detection: the autocorrelation peak lands exactly on the beat lag.
func ClickTrack(n int, sampleRate, bpm float64) []float64 {
	const clickWidth = 64
	const clickAmp = 0.9

	buf := make([]float64, n)
	if bpm <= 0 {
		return buf
	}
	period := sampleRate * 60 / bpm
	for pos := 0.0; int(pos) < n; pos += period {
		start := int(pos)
		for i := start; i < start+clickWidth && i < n; i++ {
			buf[i] = clickAmp
		}
	}
	return buf
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}
