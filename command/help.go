// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package command

// HelpText describes the full operator command surface.
const HelpText = `Measurement Network Gateway - Command Help

VALID COMMANDS:

  CONNECT <IP_ADDRESS>
    Establish TCP connection to the device.
    IP_ADDRESS must be valid IPv4 format.
    Example: CONNECT 192.168.1.10

  DISCONNECT
    Close the active connection.
    Streaming must be stopped before disconnecting.

  START
    Start data streaming.
    Only valid when connected.

  STOP
    Stop data streaming.
    Only valid when currently running.

  SHUTDOWN
    Shut down the remote device and close the application.
    Must not be running.

  CONFIGURE <SENSOR_ID> <FREQ_HZ>
    SENSOR_ID:
      TEMP   - Temperature sensor
      ADC0   - ADC channel 0
      ADC1   - ADC channel 1
      SW     - Switch inputs
      PB     - Push buttons
    FREQ_HZ:
      Integer value between 10 and 1000
    Examples:
      CONFIGURE TEMP 50
      CONFIGURE ADC0 200

INVALID EXAMPLES:

  START                   (not connected)
  STOP                    (not running)
  SHUTDOWN                (while running)
  CONFIGURE TEMP 9        (frequency too low)
  CONFIGURE ADC1 1001     (frequency too high)

NOTES:

  - Commands are case-insensitive
  - Cannot CONNECT while already connected
  - Cannot DISCONNECT while streaming is running
  - START requires an active connection
  - STOP requires the running state
  - SHUTDOWN requires connected and not running
  - CONFIGURE is accepted in any state; while disconnected it is queued
    and sent on the next successful CONNECT
`
