// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package sensor defines the fixed sensor channel set of the measurement
// device and the table of configured sampling rates.
package sensor

import "strings"

// ID identifies a sensor channel. The set is fixed by the device firmware.
type ID uint32

const (
	Temp ID = iota
	ADC0
	ADC1
	Switches
	PushButtons

	// Count is the number of sensor channels the device exposes.
	Count = 5
)

// Configured sampling rates must fall within this range.
const (
	MinRateHz = 10
	MaxRateHz = 1000
)

// codes are the short identifiers used on the wire and in commands.
var codes = [Count]string{"TEMP", "ADC0", "ADC1", "SW", "PB"}

// labels are the human-readable channel names.
var labels = [Count]string{"Temp", "ADC 0", "ADC 1", "Switches", "Push Buttons"}

// rawMax is the maximum raw device unit per channel, for display scaling.
var rawMax = [Count]float64{1024, 4095, 4095, 255, 1}

// Valid reports whether id identifies a known sensor channel. Decoded
// records carrying an unknown id are dropped, not escalated.
func (id ID) Valid() bool {
	return id < Count
}

// Code returns the short identifier for the sensor, e.g. "ADC0".
func (id ID) Code() string {
	if !id.Valid() {
		return ""
	}
	return codes[id]
}

// Label returns the display name for the sensor, e.g. "ADC 0".
func (id ID) Label() string {
	if !id.Valid() {
		return ""
	}
	return labels[id]
}

// RawMax returns the maximum raw device value the sensor can report.
func (id ID) RawMax() float64 {
	if !id.Valid() {
		return 0
	}
	return rawMax[id]
}

func (id ID) String() string {
	return id.Code()
}

// All returns every sensor ID in order.
func All() [Count]ID {
	return [Count]ID{Temp, ADC0, ADC1, Switches, PushButtons}
}

// Canonical resolves a case-insensitive token against the short codes and
// the display labels, returning the matching ID.
func Canonical(token string) (ID, bool) {
	for _, id := range All() {
		if strings.EqualFold(token, codes[id]) ||
			strings.EqualFold(token, labels[id]) {
			return id, true
		}
	}
	return 0, false
}
