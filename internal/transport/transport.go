// SPDX-License-Identifier: MIT
// Package transport pushes spectra to visualization consumers.
package transport

import (
	"errors"

	"spectrum/internal/analysis"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Source yields the most recent spectrum, if a new one is available. The
// returned spectrum is only valid until the next call.
type Source interface {
	TryTake() (analysis.Spectrum, bool)
}
