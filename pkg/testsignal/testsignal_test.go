// SPDX-License-Identifier: MIT
package testsignal

import (
	"math"
	"testing"
)

func TestSineBounds(t *testing.T) {
	buf := Sine(4410, 44100, 440, 0.8)
	if len(buf) != 4410 {
		t.Fatalf("expected 4410 samples, got %d", len(buf))
	}
	for i, s := range buf {
		if math.Abs(s) > 0.8+1e-12 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestClickTrackPeriod(t *testing.T) {
	sampleRate := 44100.0
	buf := ClickTrack(int(sampleRate)*2, sampleRate, 120)

	// 120 BPM at 44.1kHz puts a click every 22050 samples.
	for _, start := range []int{0, 22050, 44100, 66150} {
		if buf[start] == 0 {
			t.Errorf("expected click at sample %d", start)
		}
	}
	// Midway between beats must be silent.
	if buf[11025] != 0 {
		t.Error("expected silence between clicks")
	}
}

func TestClickTrackZeroBPM(t *testing.T) {
	buf := ClickTrack(1000, 44100, 0)
	for _, s := range buf {
		if s != 0 {
			t.Fatal("zero BPM click track must be silent")
		}
	}
}
