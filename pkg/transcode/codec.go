// pkg/transcode/codec.go

package transcode

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

type result uint8

const (
	// underflow: the available input was consumed, more is welcome.
	underflow result = iota
	// overflow: the output window is full; drain it and step again with
	// the same input window.
	overflow
)

var (
	errInputWindow  = errors.New("input window too small for one character")
	errOutputWindow = errors.New("output window too small for one character")
)

// codec runs one incremental transform step at a time over a pair of windows.
type codec struct {
	op string
	t  transform.Transformer
}

func newCodec(op string, t transform.Transformer) *codec {
	t.Reset()
	return &codec{op: op, t: t}
}

// step compacts out, transforms as much of in as fits, and advances in.pos
// and out.lim by what was consumed and produced.
func (c *codec) step(in, out *window, final bool) (result, error) {
	out.compact()
	nDst, nSrc, err := c.t.Transform(out.space(), in.unread(), final)
	in.pos += nSrc
	out.lim += nDst
	switch err {
	case nil:
		return underflow, nil
	case transform.ErrShortSrc:
		if final {
			return underflow, c.fail(errors.Wrap(ErrMalformedInput, "truncated input"))
		}
		if nSrc == 0 && in.full() {
			return underflow, c.fail(errInputWindow)
		}
		return underflow, nil
	case transform.ErrShortDst:
		if nDst == 0 && out.remaining() == 0 {
			return overflow, c.fail(errOutputWindow)
		}
		return overflow, nil
	}
	return underflow, c.fail(err)
}

func (c *codec) reset() {
	c.t.Reset()
}

func (c *codec) fail(err error) error {
	return &IOError{Op: c.op, Err: classify(err)}
}

type repertoireError interface {
	Replacement() byte
}

// classify maps transformer errors onto ErrMalformedInput / ErrUnmappable.
func classify(err error) error {
	if errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrUnmappable) {
		return err
	}
	if err == encoding.ErrInvalidUTF8 {
		return errors.Wrap(ErrMalformedInput, "invalid UTF-8")
	}
	if _, ok := err.(repertoireError); ok {
		return ErrUnmappable
	}
	if err == errInputWindow || err == errOutputWindow {
		return err
	}
	return errors.Wrap(ErrMalformedInput, err.Error())
}
