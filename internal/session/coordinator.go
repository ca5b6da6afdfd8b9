// SPDX-License-Identifier: MIT

// Package session owns the per-track result caches, routes client
// requests to the analysis components, and broadcasts shared-state
// changes to every connected client.
package session

import (
	"sync"

	"mixengine/internal/analysis"
	"mixengine/internal/crowd"
	"mixengine/internal/log"
	"mixengine/internal/mix"
	"mixengine/internal/stems"
)

// Coordinator glues the analyzer, separator and crowd manager together
// behind the caches. Descriptors and stem sets are write-once per track
// id; a concurrent first request for the same uncached id may compute
// redundantly, with the last insert winning, but a reader never observes
// a partial entry.
type Coordinator struct {
	analyzer  *analysis.Analyzer
	separator *stems.Separator
	crowd     *crowd.Manager

	mu          sync.RWMutex
	descriptors map[string]*analysis.TrackDescriptor
	stemSets    map[string]*stems.StemSet
}

// NewCoordinator wires the components into a coordinator with empty caches.
func NewCoordinator(analyzer *analysis.Analyzer, separator *stems.Separator, crowdMgr *crowd.Manager) *Coordinator {
	return &Coordinator{
		analyzer:    analyzer,
		separator:   separator,
		crowd:       crowdMgr,
		descriptors: make(map[string]*analysis.TrackDescriptor),
		stemSets:    make(map[string]*stems.StemSet),
	}
}

// AnalyzeTrack returns the cached descriptor for the id, computing it
// at most once. The returned bool reports a cache hit.
func (c *Coordinator) AnalyzeTrack(trackID string, samples []float64) (*analysis.TrackDescriptor, bool) {
	c.mu.RLock()
	if d, ok := c.descriptors[trackID]; ok {
		c.mu.RUnlock()
		return d, true
	}
	c.mu.RUnlock()

	// Compute outside the lock: analysis of a long buffer must not stall
	// cache reads for other tracks.
	d := c.analyzer.Analyze(trackID, samples)

	c.mu.Lock()
	c.descriptors[trackID] = d
	c.mu.Unlock()

	log.Infof("session: analyzed track %s (%.0f BPM, key %s)", trackID, d.TempoBPM, d.Key)
	return d, false
}

// SeparateStems returns the cached stem set for the id, computing it at
// most once. The returned bool reports a cache hit.
func (c *Coordinator) SeparateStems(trackID string, samples []float64) (*stems.StemSet, bool) {
	c.mu.RLock()
	if s, ok := c.stemSets[trackID]; ok {
		c.mu.RUnlock()
		return s, true
	}
	c.mu.RUnlock()

	s := c.separator.Separate(samples)

	c.mu.Lock()
	c.stemSets[trackID] = s
	c.mu.Unlock()

	log.Infof("session: separated stems for track %s (%d samples)", trackID, len(s.Melody))
	return s, false
}

// Descriptor fetches a cached descriptor without triggering analysis.
func (c *Coordinator) Descriptor(trackID string) (*analysis.TrackDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptors[trackID]
	return d, ok
}

// SuggestMixes ranks transitions from the current track into the listed
// candidates. Unanalyzed tracks on either side degrade to zero-confidence
// scores and fall out of the ranked batch; they are never an error here.
func (c *Coordinator) SuggestMixes(currentTrack string, availableTracks []string) []mix.MixSuggestion {
	c.mu.RLock()
	current := c.descriptors[currentTrack]
	candidates := make([]*analysis.TrackDescriptor, 0, len(availableTracks))
	for _, id := range availableTracks {
		candidates = append(candidates, c.descriptors[id])
	}
	c.mu.RUnlock()

	return mix.SuggestMixes(current, candidates)
}

// HarmonicMix computes harmonic transition parameters between two
// analyzed tracks. Unlike the suggestion batch, a missing descriptor is
// an explicit error on this path.
func (c *Coordinator) HarmonicMix(fromTrack, toTrack string) (*mix.HarmonicMixParameters, error) {
	c.mu.RLock()
	from := c.descriptors[fromTrack]
	to := c.descriptors[toTrack]
	c.mu.RUnlock()

	return mix.HarmonicParameters(from, to)
}

// Invalidate evicts a track from both caches so the next request
// recomputes from fresh samples.
func (c *Coordinator) Invalidate(trackID string) {
	c.mu.Lock()
	delete(c.descriptors, trackID)
	delete(c.stemSets, trackID)
	c.mu.Unlock()
	log.Debugf("session: invalidated track %s", trackID)
}

// Crowd exposes the crowd state manager to the transport layer.
func (c *Coordinator) Crowd() *crowd.Manager {
	return c.crowd
}
