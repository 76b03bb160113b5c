// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package wire frames and decodes the device's multiplexed protocol: ASCII
// command lines out, rate-table broadcasts and length-prefixed sample
// batches in. All multi-byte integers on the wire are big-endian.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/sensor"
)

const (
	// RateMagic tags an incoming rate-table message.
	RateMagic = "RATES\n"

	rateMagicLen   = len(RateMagic)
	rateRecordSize = 8

	// SampleRecordSize is the wire size of one sample record:
	// u32 sensor id, u32 value, u64 timestamp.
	SampleRecordSize = 16

	// MaxBatchPayload caps a batch payload at 90 sample records.
	MaxBatchPayload = 1440
)

type (
	// Message is a decoded incoming protocol message: either *RateMessage
	// or *BatchMessage.
	Message interface{ message() }

	// RateMessage is a device rate-table broadcast, one record per sensor.
	RateMessage struct {
		Rates []sensor.Rate
	}

	// SampleRecord is one sample as carried in a batch payload. ID is not
	// validated by the codec; out-of-range ids are dropped by the caller.
	SampleRecord struct {
		ID          sensor.ID
		Value       uint32
		TimestampUS uint64
	}

	// BatchMessage is a decoded sensor batch.
	BatchMessage struct {
		Samples []SampleRecord
	}

	// Decoder frames the byte stream into discrete messages. It buffers
	// reads so the leading bytes of a frame can be inspected without being
	// consumed, which keeps the peek-then-decide framing portable to
	// transports without a native peek.
	Decoder struct {
		r *bufio.Reader
	}
)

func (*RateMessage) message()  {}
func (*BatchMessage) message() {}

// NewDecoder returns a decoder reading from r. The decoder itself never
// blocks outside of r's Read calls.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads and decodes the next message. Transport failures are returned
// as-is (a clean peer close surfaces as io.EOF); malformed frames are
// returned as a Kind=Framing error, after which the stream is unusable.
func (d *Decoder) Next() (Message, error) {
	head, err := d.r.Peek(rateMagicLen)
	if err != nil {
		return nil, err
	}

	if string(head) == RateMagic {
		return d.decodeRates()
	}
	return d.decodeBatch()
}

func (d *Decoder) decodeRates() (*RateMessage, error) {
	if _, err := d.r.Discard(rateMagicLen); err != nil {
		return nil, err
	}

	buf := make([]byte, sensor.Count*rateRecordSize)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}

	msg := &RateMessage{Rates: make([]sensor.Rate, sensor.Count)}
	for i := range msg.Rates {
		rec := buf[i*rateRecordSize:]
		msg.Rates[i] = sensor.Rate{
			ID:     sensor.ID(binary.BigEndian.Uint32(rec)),
			RateHz: binary.BigEndian.Uint32(rec[4:]),
		}
	}
	return msg, nil
}

func (d *Decoder) decodeBatch() (*BatchMessage, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return nil, err
	}

	payloadLen := binary.BigEndian.Uint32(lenBuf[:])
	switch {
	case payloadLen == 0:
		return nil, &errors.Error{
			Kind:          errors.Framing,
			Message:       "batch payload length is zero",
			PropertyName:  "payload_len",
			PropertyValue: payloadLen,
		}
	case payloadLen > MaxBatchPayload:
		return nil, &errors.Error{
			Kind: errors.Framing,
			Message: fmt.Sprintf(
				"batch payload length %d exceeds maximum %d",
				payloadLen,
				MaxBatchPayload,
			),
			PropertyName:  "payload_len",
			PropertyValue: payloadLen,
		}
	case payloadLen%SampleRecordSize != 0:
		return nil, &errors.Error{
			Kind: errors.Framing,
			Message: fmt.Sprintf(
				"batch payload length %d is not a multiple of the %d-byte record size",
				payloadLen,
				SampleRecordSize,
			),
			PropertyName:  "payload_len",
			PropertyValue: payloadLen,
		}
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, err
	}

	msg := &BatchMessage{
		Samples: make([]SampleRecord, payloadLen/SampleRecordSize),
	}
	for i := range msg.Samples {
		rec := payload[i*SampleRecordSize:]
		msg.Samples[i] = SampleRecord{
			ID:          sensor.ID(binary.BigEndian.Uint32(rec)),
			Value:       binary.BigEndian.Uint32(rec[4:]),
			TimestampUS: binary.BigEndian.Uint64(rec[8:]),
		}
	}
	return msg, nil
}
