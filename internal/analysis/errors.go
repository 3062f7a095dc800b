// SPDX-License-Identifier: MIT
package analysis

import "errors"

// AnalysisError reports a block the analyzer refused to transform. The
// analyzer only ever returns the pre-allocated values below, so the render
// thread can fail without allocating and callers can compare with errors.Is.
type AnalysisError struct {
	Reason string
}

func (e *AnalysisError) Error() string {
	return "analysis: " + e.Reason
}

var (
	// ErrEmptyBlock is returned for a block without sample data.
	ErrEmptyBlock = &AnalysisError{Reason: "empty block"}
	// ErrInvalidBlockSize is returned when the frame count is zero, negative,
	// 1, or not a power of 2. Irregular sizes are rejected rather than
	// rounded to the nearest FFT order.
	ErrInvalidBlockSize = &AnalysisError{Reason: "block frame count is not a power of 2 >= 2"}
	// ErrBlockTooLarge is returned when the frame count exceeds the
	// configured maximum block size.
	ErrBlockTooLarge = &AnalysisError{Reason: "block frame count exceeds the maximum block size"}
	// ErrShortBlock is returned when the block holds fewer samples than frames.
	ErrShortBlock = &AnalysisError{Reason: "block holds fewer samples than its frame count"}
)

// IsAnalysisError reports whether err is, or wraps, an AnalysisError.
func IsAnalysisError(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}
