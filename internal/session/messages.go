// SPDX-License-Identifier: MIT
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"mixengine/internal/analysis"
	"mixengine/internal/crowd"
	"mixengine/internal/mix"
	"mixengine/internal/stems"
)

// MessageType discriminates the envelope payload.
type MessageType string

// Inbound message types.
const (
	MsgTypeAnalyzeTrack    MessageType = "analyze_track"
	MsgTypeSeparateStems   MessageType = "separate_stems"
	MsgTypeMixSuggestion   MessageType = "request_mix_suggestion"
	MsgTypeHarmonicMix     MessageType = "harmonic_mix"
	MsgTypeVoiceCommand    MessageType = "voice_command"
	MsgTypeCrowdFeedback   MessageType = "crowd_feedback"
	MsgTypeInvalidateTrack MessageType = "invalidate"
)

// Outbound message types.
const (
	MsgTypeTrackAnalyzed    MessageType = "track_analyzed"
	MsgTypeStemsSeparated   MessageType = "stems_separated"
	MsgTypeMixSuggestions   MessageType = "mix_suggestions"
	MsgTypeHarmonicMixReady MessageType = "harmonic_mix_ready"
	MsgTypeVoiceResponse    MessageType = "voice_response"
	MsgTypeCrowdMetrics     MessageType = "crowd_metrics_updated"
	MsgTypeInitialState     MessageType = "initial_state"
	MsgTypeError            MessageType = "error"
)

// Message is the wire envelope. Data carries the type-specific payload.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// newMessage wraps a payload in an envelope. A payload that cannot be
// marshaled is a programming error surfaced to the caller.
func newMessage(t MessageType, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Data: data, Timestamp: time.Now().UnixMilli()}, nil
}

// AnalyzeTrackRequest asks for a full descriptor of the given buffer.
// SeparateStemsRequest shares the shape.
type AnalyzeTrackRequest struct {
	TrackID string    `json:"trackId"`
	Samples []float64 `json:"samples"`
}

type SeparateStemsRequest = AnalyzeTrackRequest

// MixSuggestionRequest asks for ranked transitions out of the current track.
type MixSuggestionRequest struct {
	CurrentTrack    string   `json:"currentTrack"`
	AvailableTracks []string `json:"availableTracks"`
}

// HarmonicMixRequest asks for concrete harmonic transition parameters.
type HarmonicMixRequest struct {
	FromTrack string `json:"fromTrack"`
	ToTrack   string `json:"toTrack"`
}

// VoiceCommandRequest carries a free-text command for the dispatcher.
type VoiceCommandRequest struct {
	Command string `json:"command"`
}

// InvalidateRequest evicts a track from the descriptor and stem caches,
// forcing recomputation on the next request.
type InvalidateRequest struct {
	TrackID string `json:"trackId"`
}

type TrackAnalyzedPayload struct {
	TrackID  string                    `json:"trackId"`
	Analysis *analysis.TrackDescriptor `json:"analysis"`
}

type StemsSeparatedPayload struct {
	TrackID string         `json:"trackId"`
	Stems   *stems.StemSet `json:"stems"`
}

type MixSuggestionsPayload struct {
	CurrentTrack string              `json:"currentTrack"`
	Suggestions  []mix.MixSuggestion `json:"suggestions"`
}

type HarmonicMixReadyPayload struct {
	FromTrack  string                     `json:"fromTrack"`
	ToTrack    string                     `json:"toTrack"`
	Parameters *mix.HarmonicMixParameters `json:"parameters"`
}

// VoiceResponsePayload is the dispatcher's answer to a voice command.
// Tracks, Effects and Metrics are populated per action.
type VoiceResponsePayload struct {
	Command string         `json:"command"`
	Action  string         `json:"action"`
	Message string         `json:"message"`
	Tracks  []string       `json:"tracks,omitempty"`
	Effects []string       `json:"effects,omitempty"`
	Metrics *crowd.Metrics `json:"metrics,omitempty"`
}

// InitialStatePayload greets a freshly connected client.
type InitialStatePayload struct {
	CrowdMetrics      crowd.Metrics `json:"crowdMetrics"`
	AvailableFeatures []string      `json:"availableFeatures"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
