// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"mixengine/pkg/bitint"
)

// WindowFunc selects the window applied before each FFT.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// Spectrum computes magnitude spectra over fixed-size frames. It owns
// pre-allocated workspace buffers and is therefore NOT safe for concurrent
// use; each analysis call builds its own instance.
type Spectrum struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64

	win    []float64    // Pre-calculated window coefficients.
	input  []float64    // Windowed input frame.
	coeffs []complex128 // FFT complex output.
	mags   []float64    // Calculated magnitudes.
}

// NewSpectrum creates a Spectrum for power-of-2 frames of the given size.
func NewSpectrum(size int, sampleRate float64, windowType WindowFunc) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("spectrum size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	win := make([]float64, size)
	applyWindow(win, windowType)

	// Real-input FFT yields N/2 + 1 complex coefficients.
	numBins := size/2 + 1

	return &Spectrum{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		win:        win,
		input:      make([]float64, size),
		coeffs:     make([]complex128, numBins),
		mags:       make([]float64, numBins),
	}, nil
}

// Magnitudes returns the magnitude spectrum of frame. Frames shorter than
// the configured size are zero-padded. Magnitudes are scaled by 1/size so
// band energies stay comparable across window sizes. The returned slice is
// workspace memory reused by the next call.
func (s *Spectrum) Magnitudes(frame []float64) []float64 {
	for i := range s.input {
		if i < len(frame) {
			s.input[i] = frame[i] * s.win[i]
		} else {
			s.input[i] = 0
		}
	}

	s.fft.Coefficients(s.coeffs, s.input)

	norm := 1.0 / float64(s.size)
	for i, c := range s.coeffs {
		s.mags[i] = cmplx.Abs(c) * norm
	}
	return s.mags
}

// BinFrequency returns the center frequency (Hz) for an FFT bin index.
func (s *Spectrum) BinFrequency(bin int) float64 {
	if bin < 0 || bin >= len(s.mags) {
		return 0
	}
	return float64(bin) * (s.sampleRate / float64(s.size))
}

// BandEnergy sums squared magnitudes over bins whose center frequency
// falls in [lowHz, highHz).
func (s *Spectrum) BandEnergy(mags []float64, lowHz, highHz float64) float64 {
	var energy float64
	for i, m := range mags {
		f := s.BinFrequency(i)
		if f >= lowHz && f < highHz {
			energy += m * m
		}
	}
	return energy
}

// Size returns the frame size in samples.
func (s *Spectrum) Size() int { return s.size }

// NumBins returns the number of magnitude bins (size/2 + 1).
func (s *Spectrum) NumBins() int { return len(s.mags) }

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: %q", name)
	}
}

// applyWindow fills coeffs with the selected window's coefficients.
// The slice is seeded with 1.0 because the gonum window functions
// multiply in place.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
