// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package sensor

import "sync"

type (
	// Rate is a single sensor rate configuration as carried by a device
	// rate-table broadcast.
	Rate struct {
		ID     ID
		RateHz uint32
	}

	// RateTable holds the configured sampling rate per sensor, keyed by
	// canonical sensor code. It is written by the receive loop (device
	// broadcasts) and by local CONFIGURE commands, and read by the command
	// interpreter and window-sizing logic.
	RateTable struct {
		mu    sync.RWMutex
		rates map[string]uint32
	}
)

// NewRateTable returns an empty rate table.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]uint32, Count)}
}

// Set records the configured rate for a sensor.
func (t *RateTable) Set(id ID, rateHz uint32) {
	if !id.Valid() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[id.Code()] = rateHz
}

// Get returns the configured rate for a sensor, if one is known.
func (t *RateTable) Get(id ID) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rate, ok := t.rates[id.Code()]
	return rate, ok
}

// Apply merges a device rate-table broadcast. Records with unknown sensor
// ids are dropped and counted in the return value.
func (t *RateTable) Apply(rates []Rate) (dropped int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range rates {
		if !r.ID.Valid() {
			dropped++
			continue
		}
		t.rates[r.ID.Code()] = r.RateHz
	}
	return dropped
}

// Snapshot returns a copy of the table keyed by canonical sensor code.
func (t *RateTable) Snapshot() map[string]uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]uint32, len(t.rates))
	for code, rate := range t.rates {
		out[code] = rate
	}
	return out
}

// Reset clears every configured rate.
func (t *RateTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.rates)
}
