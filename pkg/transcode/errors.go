// pkg/transcode/errors.go

package transcode

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by every operation on an adapter after Close.
	ErrClosed = errors.New("transcode: adapter is closed")

	// ErrMalformedInput means the input is not valid in its charset.
	ErrMalformedInput = errors.New("transcode: malformed input")

	// ErrUnmappable means a character has no representation in the target charset.
	ErrUnmappable = errors.New("transcode: unmappable character")

	// ErrMarkNotSupported is returned by Reset when the source cannot be rewound.
	ErrMarkNotSupported = errors.New("transcode: mark/reset not supported")
)

// ArgumentError reports a caller bug: an offset, length or size outside the
// valid range. It is returned before any I/O happens and is never wrapped
// into an IOError.
type ArgumentError struct {
	Op  string
	Msg string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("transcode: %s: %s", e.Op, e.Msg)
}

// IsArgumentError reports whether err is an argument validation failure.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

func checkSlice(op string, size, off, n int) error {
	if off < 0 || n < 0 || off > size || n > size-off {
		return &ArgumentError{op, fmt.Sprintf("offset %d length %d out of range for buffer of %d", off, n, size)}
	}
	return nil
}

// IOError is the uniform failure type of the adapters: coding errors,
// failures of the wrapped source, and failures of the wrapped sink.
//
// RolledBack is set when the adapter restored its windows after a sink
// failure, so retrying the uncommitted part of the write is safe.
type IOError struct {
	Op         string
	Err        error
	RolledBack bool
}

func (e *IOError) Error() string {
	return "transcode: " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the original failure.
func (e *IOError) Cause() error { return e.Err }

func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *IOError
	if errors.As(err, &ie) {
		return err
	}
	return &IOError{Op: op, Err: err}
}
