// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package wire

import (
	"fmt"

	"github.com/measnet/gateway/sensor"
)

// Outgoing commands are single ASCII lines terminated by a newline.
const (
	StartLine    = "START\n"
	StopLine     = "STOP\n"
	ShutdownLine = "SHUTDOWN\n"
)

// ConfigureLine encodes a CONFIGURE command for one sensor.
func ConfigureLine(id sensor.ID, rateHz uint32) string {
	return fmt.Sprintf("CONFIGURE %s %d\n", id.Code(), rateHz)
}
