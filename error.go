package musiforge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned when flow or block is misconfigured.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrGraphHasCycle is returned by Run when blocks can't be ordered.
	// The buffer produced for such run is silence.
	ErrGraphHasCycle = errors.New("graph has cycle")
	// ErrUnknownBlock is returned when block id doesn't belong to the flow.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrPortOutOfRange is returned when port index exceeds block ports.
	ErrPortOutOfRange = errors.New("port out of range")
	// ErrInvalidBuffer is returned when output buffer doesn't match buffer
	// length or isn't a whole number of frames.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrClosed is returned if flow is used after Close.
	ErrClosed = errors.New("flow is closed")
)

// BlockError wraps an error returned or raised by a block processor.
type BlockError struct {
	Block BlockID
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %v: %v", e.Block, e.Err)
}

// Unwrap returns the cause.
func (e *BlockError) Unwrap() error {
	return e.Err
}

// RunError is returned by Run if one or more blocks failed. Outputs of
// failed blocks are treated as silence for that run.
type RunError struct {
	Failed execErrors
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run failed: %v", e.Failed)
}

// Is checks if any of errors match provided sentinel error.
func (e *RunError) Is(err error) bool {
	for _, f := range e.Failed {
		if errors.Is(f, err) {
			return true
		}
	}
	return false
}

// execErrors wraps errors that might occure when multiple blocks are
// failing.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// ret returns untyped nil if error is list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return &RunError{Failed: e}
	}
	return nil
}
