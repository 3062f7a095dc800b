// SPDX-License-Identifier: MIT
// Package udp sends spectrum frames as compact binary datagrams.
package udp

import (
	"bytes"
	"fmt"
	"sync"

	applog "spectrum/internal/log"
	"spectrum/internal/transport"
)

// Transport encodes frames into packets and sends them with a Sender.
type Transport struct {
	sender *Sender

	mu     sync.Mutex
	packet bytes.Buffer // Reused between sends
}

// NewTransport dials targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: sender}, nil
}

// Send encodes a transport.Frame and sends it as one datagram. Other data
// types are rejected.
func (t *Transport) Send(data any) error {
	var frame transport.Frame
	switch f := data.(type) {
	case transport.Frame:
		frame = f
	case *transport.Frame:
		frame = *f
	default:
		return fmt.Errorf("udp transport: unsupported data type %T", data)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.packet.Reset()
	if err := EncodePacket(&t.packet, frame); err != nil {
		return fmt.Errorf("udp transport: %w", err)
	}
	if err := t.sender.Send(t.packet.Bytes()); err != nil {
		return err
	}
	applog.Debugf("UDPTransport: Sent packet %d (%d bytes)", frame.Sequence, t.packet.Len())
	return nil
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
