// pkg/transcode/convert.go

package transcode

import (
	"github.com/pkg/errors"
	"golang.org/x/text/transform"
)

// Converter transcodes blocks from one charset to another. It keeps codec
// state between calls, so a block may end in the middle of a character as
// long as the caller passes the unconsumed bytes again with the next block.
type Converter struct {
	from, to *Charset
	dec, enc transform.Transformer
}

func NewConverter(from, to *Charset) *Converter {
	c := &Converter{from: from, to: to, dec: from.NewDecoder(), enc: to.NewEncoder()}
	c.Reset()
	return c
}

func (c *Converter) Reset() {
	c.dec.Reset()
	c.enc.Reset()
}

func (c *Converter) String() string {
	return c.from.Name() + " -> " + c.to.Name()
}

// ConvertPrefix converts the longest prefix of src made of complete
// characters and reports how many bytes of src it used. With final set all
// of src must be used.
func (c *Converter) ConvertPrefix(src []byte, final bool) ([]byte, int, error) {
	text, n, err := transformPrefix(c.dec, "decode", src, final)
	if err != nil {
		return nil, n, err
	}
	out, m, err := transformPrefix(c.enc, "encode", text, final)
	if err != nil {
		return nil, n, err
	}
	if m < len(text) {
		return nil, n, &IOError{Op: "encode", Err: errors.Wrap(ErrMalformedInput, "incomplete character")}
	}
	return out, n, nil
}

func transformPrefix(t transform.Transformer, op string, src []byte, final bool) ([]byte, int, error) {
	size := 2*len(src) + MinBufferSize
	buf := make([]byte, size)
	var out []byte
	consumed := 0
	for {
		nDst, nSrc, err := t.Transform(buf, src[consumed:], final)
		out = append(out, buf[:nDst]...)
		consumed += nSrc
		switch err {
		case nil:
			return out, consumed, nil
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				buf = make([]byte, 2*len(buf))
			}
		case transform.ErrShortSrc:
			if final {
				return nil, consumed, &IOError{Op: op, Err: errors.Wrap(ErrMalformedInput, "truncated input")}
			}
			return out, consumed, nil
		default:
			return nil, consumed, &IOError{Op: op, Err: classify(err)}
		}
	}
}
