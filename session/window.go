// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"sync"

	"github.com/measnet/gateway/sensor"
)

// ReferenceSensor is the channel whose configured rate drives the visible
// time window.
const ReferenceSensor = sensor.ADC0

const (
	// VisibleSamples is the target number of reference-sensor samples kept
	// visible in the window.
	VisibleSamples = 300

	// MinWindowUS and MaxWindowUS clamp the window width. MaxWindowUS is
	// also the fallback before any rate is known.
	MinWindowUS = 50_000
	MaxWindowUS = 5_000_000
)

// TimeWindow is the width of the trailing interval of device time that is
// considered visible. It is recomputed whenever a rate-table broadcast
// changes the reference sensor's rate.
type TimeWindow struct {
	mu sync.RWMutex
	us uint64
}

// NewTimeWindow returns a window at the fallback width.
func NewTimeWindow() *TimeWindow {
	return &TimeWindow{us: MaxWindowUS}
}

// US returns the current window width in microseconds.
func (w *TimeWindow) US() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.us
}

// Update recomputes the window from the reference sensor's rate.
func (w *TimeWindow) Update(rateHz uint32) {
	if rateHz == 0 {
		return
	}

	us := uint64(VisibleSamples) * 1_000_000 / uint64(rateHz)
	if us < MinWindowUS {
		us = MinWindowUS
	}
	if us > MaxWindowUS {
		us = MaxWindowUS
	}

	w.mu.Lock()
	w.us = us
	w.mu.Unlock()
}

// Reset restores the fallback width.
func (w *TimeWindow) Reset() {
	w.mu.Lock()
	w.us = MaxWindowUS
	w.mu.Unlock()
}
