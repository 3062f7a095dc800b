// SPDX-License-Identifier: MIT
package transport

import (
	applog "spectrum/internal/log"
)

// LoggingTransport implements the Transport interface by logging a one-line
// summary of every frame at debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data to the standard logger.
func (lt *LoggingTransport) Send(data any) error {
	if !applog.Enabled(applog.LevelDebug) {
		return nil
	}
	switch f := data.(type) {
	case Frame:
		bin, power := f.Peak()
		applog.Debugf("LoggingTransport: frame %d, %d bins, peak %.1f Hz (power %.3g)",
			f.Sequence, len(f.Power), f.BinFrequency(bin), power)
	default:
		applog.Debugf("LoggingTransport: Received (%T): %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LoggingTransport: Close called.")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
