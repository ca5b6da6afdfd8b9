// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"mixengine/pkg/testsignal"
)

const (
	testWindowSize = 1024
	testSampleRate = 44100.0
)

func TestNewSpectrumValidation(t *testing.T) {
	if _, err := NewSpectrum(1000, testSampleRate, Hann); err == nil {
		t.Error("expected error for non-power-of-2 size")
	}
	if _, err := NewSpectrum(testWindowSize, 0, Hann); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestMagnitudesPeakBin(t *testing.T) {
	spec, err := NewSpectrum(testWindowSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	frame := testsignal.Sine(testWindowSize, testSampleRate, 1000, 0.9)
	mags := spec.Magnitudes(frame)

	peak := 1
	for i := 2; i < len(mags); i++ {
		if mags[i] > mags[peak] {
			peak = i
		}
	}

	// 1kHz at 44.1kHz/1024 lands in bin round(1000/43.07) = 23.
	if peak != 23 {
		t.Errorf("peak bin = %d (%.1f Hz), want 23", peak, spec.BinFrequency(peak))
	}
}

func TestMagnitudesZeroPadsShortFrames(t *testing.T) {
	spec, err := NewSpectrum(testWindowSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	mags := spec.Magnitudes(testsignal.Sine(100, testSampleRate, 440, 0.5))
	if len(mags) != testWindowSize/2+1 {
		t.Errorf("len(mags) = %d, want %d", len(mags), testWindowSize/2+1)
	}
}

func TestBandEnergyLocatesTone(t *testing.T) {
	spec, err := NewSpectrum(testWindowSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	mags := spec.Magnitudes(testsignal.Sine(testWindowSize, testSampleRate, 1000, 0.9))

	inBand := spec.BandEnergy(mags, 800, 1200)
	outOfBand := spec.BandEnergy(mags, 5000, 8000)
	if inBand <= outOfBand {
		t.Errorf("band energy around tone (%g) should exceed distant band (%g)", inBand, outOfBand)
	}
}

func TestParseWindowFunc(t *testing.T) {
	cases := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"Hann", Hann, false},
		{"hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"nuttall", Nuttall, false},
		{"triangular", Hann, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tc.name)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func BenchmarkMagnitudes(b *testing.B) {
	spec, err := NewSpectrum(testWindowSize, testSampleRate, Hann)
	if err != nil {
		b.Fatal(err)
	}
	frame := testsignal.HarmonicStack(testWindowSize, testSampleRate, 0.9)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		spec.Magnitudes(frame)
	}
}
