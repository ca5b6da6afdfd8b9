// SPDX-License-Identifier: MIT
package session

import (
	"fmt"
	"sort"
	"strings"

	"mixengine/internal/crowd"
)

// Descriptor thresholds for the "energetic" track filter.
const (
	energeticEnergyFloor       = 0.7
	energeticDanceabilityFloor = 0.6
)

// voicePhrases lists the recognized command fragments, quoted in the
// fallback help message.
var voicePhrases = []string{"energetic", "smooth", "bass drop", "crowd"}

// smoothTransitionBundle is the fixed parameter set behind "smooth".
var smoothTransitionBundle = []string{
	"crossfade@32beats",
	"lowpass@8000Hz",
	"reverb@0.3",
}

// bassDropBundle is the fixed effect set behind "bass drop".
var bassDropBundle = []string{
	"highpass_sweep@4bars",
	"bass_cut@-inf",
	"bass_restore@drop",
}

// VoiceCommand resolves a free-text command with a fixed-grammar
// substring dispatcher. Unrecognized input yields a help response, never
// an error.
func (c *Coordinator) VoiceCommand(command string) VoiceResponsePayload {
	resp := VoiceResponsePayload{Command: command}
	cmd := strings.ToLower(command)

	switch {
	case strings.Contains(cmd, "energetic"):
		resp.Action = "play_energetic"
		resp.Tracks = c.energeticTracks()
		resp.Message = fmt.Sprintf("Found %d energetic tracks in the analyzed library", len(resp.Tracks))

	case strings.Contains(cmd, "smooth"):
		resp.Action = "smooth_transition"
		resp.Effects = append([]string(nil), smoothTransitionBundle...)
		resp.Message = "Smooth transition enabled: 32-beat crossfade with gentle filtering"

	case strings.Contains(cmd, "bass drop"):
		resp.Action = "bass_drop"
		resp.Effects = append([]string(nil), bassDropBundle...)
		resp.Message = "Bass drop armed: sweep up over 4 bars, then release"

	case strings.Contains(cmd, "crowd"):
		metrics := c.crowd.Snapshot()
		resp.Action = "crowd_report"
		resp.Metrics = &metrics
		resp.Message = crowd.Recommend(metrics)

	default:
		resp.Action = "help"
		resp.Message = fmt.Sprintf("Unrecognized command. Try one of: %s", strings.Join(voicePhrases, ", "))
	}
	return resp
}

// energeticTracks filters the descriptor cache for high-energy,
// danceable tracks, sorted by id for stable responses.
func (c *Coordinator) energeticTracks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for id, d := range c.descriptors {
		if d.Energy > energeticEnergyFloor && d.Danceability > energeticDanceabilityFloor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
