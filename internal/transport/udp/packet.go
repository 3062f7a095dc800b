// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"spectrum/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Spectrum sequence       |
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Power Count       | uint16         | 2            | Number of floats (N)    |
| Bin Width         | float32        | 4            | Hz between bins         |
| Power             | []float32      | N * 4        | Squared magnitudes      |
+-----------------------------------------------------------------------------+
*/

// HeaderSize is the size of the fixed packet header in bytes.
const HeaderSize = 4 + 8 + 2 + 4

// MaxBins is the largest spectrum a packet can carry.
const MaxBins = math.MaxUint16

// Packet is a decoded spectrum packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	BinWidth  float32
	Power     []float32
}

// EncodePacket writes f to buf in the packet layout. The sequence number is
// truncated to 32 bits.
func EncodePacket(buf *bytes.Buffer, f transport.Frame) error {
	if len(f.Power) > MaxBins {
		return fmt.Errorf("spectrum has %d bins, packet limit is %d", len(f.Power), MaxBins)
	}

	buf.Grow(HeaderSize + 4*len(f.Power))
	err := binary.Write(buf, binary.BigEndian, uint32(f.Sequence))
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, f.Timestamp)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(f.Power)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, float32(f.BinWidth))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, f.Power)
	}
	return err
}

// DecodePacket parses a packet produced by EncodePacket.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(data))
	}

	var p Packet
	r := bytes.NewReader(data)
	var count uint16
	if err := errors.Join(
		binary.Read(r, binary.BigEndian, &p.Sequence),
		binary.Read(r, binary.BigEndian, &p.Timestamp),
		binary.Read(r, binary.BigEndian, &count),
		binary.Read(r, binary.BigEndian, &p.BinWidth),
	); err != nil {
		return Packet{}, fmt.Errorf("failed to read header: %w", err)
	}

	if want := HeaderSize + 4*int(count); len(data) != want {
		return Packet{}, fmt.Errorf("packet length %d does not match %d bins", len(data), count)
	}
	p.Power = make([]float32, count)
	if err := binary.Read(r, binary.BigEndian, p.Power); err != nil && !errors.Is(err, io.EOF) {
		return Packet{}, fmt.Errorf("failed to read power: %w", err)
	}
	return p, nil
}
