// pkg/chunk/encoder.go

package chunk

import (
	"github.com/pkg/errors"
)

var (
	// ErrTrailingData is returned when a stream ends with input its
	// PrefixEncoder never consumed.
	ErrTrailingData = errors.New("chunk: unconsumed data at end of stream")

	// ErrInvalidArgument wraps every configuration error of this package.
	ErrInvalidArgument = errors.New("chunk: invalid argument")
)

// Encoder transforms one block of a stream. It is called with final set
// exactly once, on the last block, which may be empty.
type Encoder interface {
	Encode(block []byte, final bool) ([]byte, error)
}

// PrefixEncoder transforms the leading part of block it can handle and
// reports how many bytes that was.
type PrefixEncoder interface {
	EncodePrefix(block []byte, final bool) (out []byte, consumed int, err error)
}

type EncoderFunc func(block []byte, final bool) ([]byte, error)

func (f EncoderFunc) Encode(block []byte, final bool) ([]byte, error) {
	return f(block, final)
}

type PrefixEncoderFunc func(block []byte, final bool) ([]byte, int, error)

func (f PrefixEncoderFunc) EncodePrefix(block []byte, final bool) ([]byte, int, error) {
	return f(block, final)
}

// Identity returns every block unchanged.
var Identity Encoder = EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
	return block, nil
})

type chain []Encoder

// Chain feeds the output of each encoder to the next one, with the same
// final flag.
func Chain(encoders ...Encoder) Encoder {
	var c chain
	for _, e := range encoders {
		switch v := e.(type) {
		case nil:
		case chain:
			c = append(c, v...)
		default:
			c = append(c, v)
		}
	}
	switch len(c) {
	case 0:
		return Identity
	case 1:
		return c[0]
	}
	return c
}

func (c chain) Encode(block []byte, final bool) ([]byte, error) {
	var err error
	for _, e := range c {
		if block, err = e.Encode(block, final); err != nil {
			return nil, err
		}
	}
	return block, nil
}

// join returns remainder+block, copying only when there is a remainder.
func join(remainder, block []byte) []byte {
	if len(remainder) == 0 {
		return block
	}
	combined := make([]byte, 0, len(remainder)+len(block))
	return append(append(combined, remainder...), block...)
}

// keep copies the tail so callers may reuse their block buffers.
func keep(tail []byte) []byte {
	if len(tail) == 0 {
		return nil
	}
	return append([]byte(nil), tail...)
}
