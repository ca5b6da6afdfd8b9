// SPDX-License-Identifier: MIT

// Package wavio reads and writes WAV files for the offline CLI commands.
// Decoded audio is folded down to mono float64 in [-1, 1], the form every
// analysis component consumes.
package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"mixengine/internal/stems"
)

// LoadMono decodes a WAV file into normalized mono samples and reports
// the file's sample rate. Multi-channel audio is averaged across
// channels.
func LoadMono(path string) ([]float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("decode %s: missing format chunk", path)
	}

	channels := buf.Format.NumChannels
	scale := float64(int(1) << (buf.SourceBitDepth - 1))
	frames := len(buf.Data) / channels

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples, float64(buf.Format.SampleRate), nil
}

// WriteMono encodes samples as a 16-bit mono WAV file. Samples outside
// [-1, 1] are clipped.
func WriteMono(path string, samples []float64, sampleRate float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, int(sampleRate), 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: int(sampleRate)},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Round(clip(s) * float64(math.MaxInt16)))
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportStems writes the four stems next to each other in dir, named
// <base>_vocals.wav and so on.
func ExportStems(dir, base string, set *stems.StemSet, sampleRate float64) error {
	for name, samples := range map[string][]float64{
		"vocals": set.Vocals,
		"drums":  set.Drums,
		"bass":   set.Bass,
		"melody": set.Melody,
	} {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", base, name))
		if err := WriteMono(path, samples, sampleRate); err != nil {
			return err
		}
	}
	return nil
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
