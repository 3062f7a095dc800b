// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound is returned by Load when the requested asset does
	// not exist.
	ErrResourceNotFound = errors.New("audio resource not found")
	// ErrDecode is returned by Load when the asset cannot be decoded.
	ErrDecode = errors.New("audio decode failed")
	// ErrEngineState matches every *EngineStateError.
	ErrEngineState = errors.New("invalid engine state")
)

// EngineStateError reports a lifecycle operation that is not allowed in the
// session's current state, such as starting twice.
type EngineStateError struct {
	Op    string
	State State
}

func (e *EngineStateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// Is makes errors.Is(err, ErrEngineState) match.
func (e *EngineStateError) Is(target error) bool {
	return target == ErrEngineState
}
