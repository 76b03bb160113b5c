// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package wire_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/sensor"
	"github.com/measnet/gateway/wire"
)

func encodeRates(rates [sensor.Count]uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString(wire.RateMagic)
	for i, hz := range rates {
		var rec [8]byte
		binary.BigEndian.PutUint32(rec[:4], uint32(i))
		binary.BigEndian.PutUint32(rec[4:], hz)
		buf.Write(rec[:])
	}
	return buf.Bytes()
}

func encodeBatch(samples []wire.SampleRecord) []byte {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(samples)*wire.SampleRecordSize))
	buf.Write(lenBuf[:])
	for _, s := range samples {
		var rec [16]byte
		binary.BigEndian.PutUint32(rec[:4], uint32(s.ID))
		binary.BigEndian.PutUint32(rec[4:8], s.Value)
		binary.BigEndian.PutUint64(rec[8:], s.TimestampUS)
		buf.Write(rec[:])
	}
	return buf.Bytes()
}

func TestDecodeRateMessage(t *testing.T) {
	rates := [sensor.Count]uint32{100, 300, 300, 50, 10}
	d := wire.NewDecoder(bytes.NewReader(encodeRates(rates)))

	msg, err := d.Next()
	require.NoError(t, err)

	rm, ok := msg.(*wire.RateMessage)
	require.True(t, ok)
	require.Len(t, rm.Rates, sensor.Count)
	for i, r := range rm.Rates {
		require.Equal(t, sensor.ID(i), r.ID)
		require.Equal(t, rates[i], r.RateHz)
	}
}

func TestDecodeBatchMessage(t *testing.T) {
	samples := []wire.SampleRecord{
		{ID: sensor.Temp, Value: 512, TimestampUS: 1_000_000},
		{ID: sensor.ADC0, Value: 4095, TimestampUS: 1_000_500},
		{ID: sensor.PushButtons, Value: 1, TimestampUS: 1_001_000},
	}
	d := wire.NewDecoder(bytes.NewReader(encodeBatch(samples)))

	msg, err := d.Next()
	require.NoError(t, err)

	bm, ok := msg.(*wire.BatchMessage)
	require.True(t, ok)
	require.Equal(t, samples, bm.Samples)
}

func TestDecodeMultiplexedStream(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeRates([sensor.Count]uint32{100, 300, 300, 50, 10}))
	stream.Write(encodeBatch([]wire.SampleRecord{
		{ID: sensor.ADC0, Value: 1, TimestampUS: 10},
		{ID: sensor.ADC0, Value: 2, TimestampUS: 20},
	}))
	stream.Write(encodeRates([sensor.Count]uint32{100, 600, 300, 50, 10}))
	stream.Write(encodeBatch([]wire.SampleRecord{
		{ID: sensor.Temp, Value: 3, TimestampUS: 30},
	}))

	d := wire.NewDecoder(&stream)

	msg, err := d.Next()
	require.NoError(t, err)
	require.IsType(t, &wire.RateMessage{}, msg)

	msg, err = d.Next()
	require.NoError(t, err)
	require.IsType(t, &wire.BatchMessage{}, msg)
	require.Len(t, msg.(*wire.BatchMessage).Samples, 2)

	msg, err = d.Next()
	require.NoError(t, err)
	require.Equal(t, uint32(600), msg.(*wire.RateMessage).Rates[sensor.ADC0].RateHz)

	msg, err = d.Next()
	require.NoError(t, err)
	require.Len(t, msg.(*wire.BatchMessage).Samples, 1)

	_, err = d.Next()
	require.ErrorIs(t, err, io.EOF)
}

// The decoder must frame correctly however the transport fragments the
// stream, down to one byte per read.
func TestDecodeFragmentedDelivery(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeRates([sensor.Count]uint32{100, 300, 300, 50, 10}))
	stream.Write(encodeBatch([]wire.SampleRecord{
		{ID: sensor.ADC1, Value: 7, TimestampUS: 70},
		{ID: sensor.ADC1, Value: 8, TimestampUS: 80},
	}))

	d := wire.NewDecoder(iotest.OneByteReader(&stream))

	msg, err := d.Next()
	require.NoError(t, err)
	require.IsType(t, &wire.RateMessage{}, msg)

	msg, err = d.Next()
	require.NoError(t, err)
	require.Len(t, msg.(*wire.BatchMessage).Samples, 2)
}

func TestDecodeRejectsMalformedLength(t *testing.T) {
	cases := []struct {
		name       string
		payloadLen uint32
	}{
		{"zero", 0},
		{"not a record multiple", 17},
		{"over maximum", wire.MaxBatchPayload + 16},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Trailing bytes stand in for whatever garbage follows the
			// bad length on a live stream; the decoder peeks ahead of the
			// length word and must still reject the frame.
			frame := make([]byte, 4+wire.SampleRecordSize)
			binary.BigEndian.PutUint32(frame[:4], tc.payloadLen)

			d := wire.NewDecoder(bytes.NewReader(frame))
			_, err := d.Next()

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			require.Equal(t, errors.Framing, e.Kind)
			require.Equal(t, "payload_len", e.PropertyName)
			require.Equal(t, tc.payloadLen, e.PropertyValue)
		})
	}
}

func TestDecodeTruncatedBatch(t *testing.T) {
	full := encodeBatch([]wire.SampleRecord{
		{ID: sensor.Temp, Value: 1, TimestampUS: 10},
	})

	d := wire.NewDecoder(bytes.NewReader(full[:len(full)-3]))
	_, err := d.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMaxBatchDecodes(t *testing.T) {
	samples := make([]wire.SampleRecord, wire.MaxBatchPayload/wire.SampleRecordSize)
	for i := range samples {
		samples[i] = wire.SampleRecord{ID: sensor.ADC0, Value: uint32(i), TimestampUS: uint64(i)}
	}

	d := wire.NewDecoder(bytes.NewReader(encodeBatch(samples)))
	msg, err := d.Next()
	require.NoError(t, err)
	require.Len(t, msg.(*wire.BatchMessage).Samples, len(samples))
}

func TestCommandLines(t *testing.T) {
	require.Equal(t, "START\n", wire.StartLine)
	require.Equal(t, "STOP\n", wire.StopLine)
	require.Equal(t, "SHUTDOWN\n", wire.ShutdownLine)
	require.Equal(t, "CONFIGURE TEMP 50\n", wire.ConfigureLine(sensor.Temp, 50))
	require.Equal(t, "CONFIGURE ADC1 1000\n", wire.ConfigureLine(sensor.ADC1, 1000))
}
