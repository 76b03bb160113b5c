// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package store accumulates decoded sensor samples in fixed-capacity
// per-channel circular buffers and serves time-windowed snapshots to
// consumers. One writer (the session's receive loop) and any number of
// readers share the store under a single lock.
package store

import (
	"sync"

	"github.com/measnet/gateway/internal/container"
	"github.com/measnet/gateway/sensor"
)

// MaxSamples is the fixed capacity of each sensor's circular buffer.
const MaxSamples = 1024

type (
	// Sample is a single stored measurement. Timestamp is device time in
	// microseconds, normalized to the session origin; it is never wall
	// clock.
	Sample struct {
		Timestamp uint64
		Value     float64
	}

	// Snapshot is a consistent windowed copy of the store. Series holds,
	// per sensor, the visible samples in chronological order; a sensor
	// with fewer than two stored samples yields a nil series, since a
	// single point cannot be rendered as a line.
	Snapshot struct {
		TMin   uint64
		TMax   uint64
		Series [sensor.Count][]Sample
	}

	ring struct {
		data  [MaxSamples]Sample
		head  int // next write index
		count int // stored entries, <= MaxSamples
	}

	// SampleStore owns the per-sensor buffers. Buffers are allocated once
	// and reset in place; no per-sample heap churn.
	SampleStore struct {
		mu      sync.Mutex
		rings   [sensor.Count]ring
		origin  uint64
		started bool // origin has been established
		lastTS  [sensor.Count]uint64
		lastSet [sensor.Count]bool

		ready *container.BufferChan[struct{}]
	}
)

// New returns an empty store.
func New() *SampleStore {
	return &SampleStore{ready: container.NewBufferChan[struct{}](1)}
}

// Ready returns a channel that receives a signal whenever new data has been
// pushed. Signals are coalesced; consumers drain and snapshot.
func (s *SampleStore) Ready() <-chan struct{} {
	return s.ready.C
}

// Push inserts a sample for the given sensor. The first sample after a
// (re)connect establishes the session time origin; all stored timestamps are
// relative to it. A timestamp running backwards on any sensor stream means
// the device restarted its clock: every buffer is cleared and the origin is
// re-established at the current sample before it is inserted.
func (s *SampleStore) Push(id sensor.ID, value float64, timestampUS uint64) {
	if !id.Valid() {
		return
	}

	s.mu.Lock()

	if !s.started {
		s.origin = timestampUS
		s.started = true
	}

	if (s.lastSet[id] && timestampUS < s.lastTS[id]) || timestampUS < s.origin {
		// Device clock reset. Drop history and re-anchor on this sample.
		s.clearLocked()
		s.origin = timestampUS
	}

	s.lastTS[id] = timestampUS
	s.lastSet[id] = true

	r := &s.rings[id]
	r.data[r.head] = Sample{Timestamp: timestampUS - s.origin, Value: value}
	r.head = (r.head + 1) % MaxSamples
	if r.count < MaxSamples {
		r.count++
	}

	s.mu.Unlock()

	// Wake the consumer outside the lock.
	s.ready.Send(struct{}{})
}

// Snapshot copies out, per sensor, the samples whose timestamps fall within
// the trailing windowUS microseconds of device time. The copy happens
// entirely under the lock, so a snapshot never observes a torn write.
func (s *SampleStore) Snapshot(windowUS uint64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot

	// Newest timestamp across all sensors bounds the window.
	for i := range s.rings {
		r := &s.rings[i]
		if r.count == 0 {
			continue
		}
		newest := r.data[(r.head-1+MaxSamples)%MaxSamples].Timestamp
		if newest > snap.TMax {
			snap.TMax = newest
		}
	}

	if snap.TMax > windowUS {
		snap.TMin = snap.TMax - windowUS
	}

	for i := range s.rings {
		r := &s.rings[i]
		if r.count < 2 {
			continue
		}

		series := make([]Sample, 0, r.count)
		start := (r.head - r.count + MaxSamples) % MaxSamples
		for n := range r.count {
			sample := r.data[(start+n)%MaxSamples]
			if sample.Timestamp >= snap.TMin {
				series = append(series, sample)
			}
		}
		if len(series) > 0 {
			snap.Series[i] = series
		}
	}

	return snap
}

// Count returns the number of stored samples for a sensor.
func (s *SampleStore) Count(id sensor.ID) int {
	if !id.Valid() {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rings[id].count
}

// Reset clears all buffers and the time origin. Called on every successful
// connect and on disconnect.
func (s *SampleStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.started = false
	s.origin = 0
}

func (s *SampleStore) clearLocked() {
	for i := range s.rings {
		s.rings[i].head = 0
		s.rings[i].count = 0
	}
	for i := range s.lastSet {
		s.lastTS[i] = 0
		s.lastSet[i] = false
	}
}
