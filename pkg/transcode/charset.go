// pkg/transcode/charset.go

package transcode

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset is a named character encoding. Both directions report malformed
// input and unmappable characters instead of substituting them.
type Charset struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// UTF8 is the charset of the text side of every adapter.
var UTF8 = &Charset{name: "UTF-8"}

// LookupCharset finds a charset by IANA or WHATWG name, case-insensitively.
func LookupCharset(name string) (*Charset, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "utf-8" || n == "utf8" {
		return UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(n)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(n)
	}
	if err != nil || enc == nil {
		return nil, errors.Errorf("transcode: unsupported charset %q", name)
	}
	if enc == unicode.UTF8 {
		return UTF8, nil
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil {
		if canonical, err = ianaindex.IANA.Name(enc); err != nil {
			canonical = name
		}
	}
	return &Charset{name: canonical, enc: enc}, nil
}

// MustLookupCharset is like LookupCharset but panics on unknown names.
func MustLookupCharset(name string) *Charset {
	cs, err := LookupCharset(name)
	if err != nil {
		panic(err)
	}
	return cs
}

func (c *Charset) Name() string {
	return c.name
}

func (c *Charset) String() string {
	return c.name
}

// NewDecoder returns a fresh transformer from this charset to UTF-8.
func (c *Charset) NewDecoder() transform.Transformer {
	if c.enc == nil {
		return encoding.UTF8Validator
	}
	return &strictDecoder{c.enc.NewDecoder()}
}

// NewEncoder returns a fresh transformer from UTF-8 to this charset.
func (c *Charset) NewEncoder() transform.Transformer {
	if c.enc == nil {
		return encoding.UTF8Validator
	}
	return &strictEncoder{c.enc.NewEncoder()}
}

var replacementChar = []byte(string(utf8.RuneError))

// strictDecoder turns the U+FFFD substitutions of x/text decoders into
// errors. A U+FFFD genuinely present in a Unicode source is reported too.
type strictDecoder struct {
	t transform.Transformer
}

func (d *strictDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	nDst, nSrc, err = d.t.Transform(dst, src, atEOF)
	if bytes.Contains(dst[:nDst], replacementChar) {
		return nDst, nSrc, ErrMalformedInput
	}
	return nDst, nSrc, err
}

func (d *strictDecoder) Reset() {
	d.t.Reset()
}

// strictEncoder only hands valid UTF-8 to the wrapped encoder. It keeps no
// state of its own.
type strictEncoder struct {
	t transform.Transformer
}

func (e *strictEncoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	n, bad := validPrefix(src, atEOF)
	nDst, nSrc, err = e.t.Transform(dst, src[:n], atEOF && n == len(src))
	if err != nil || nSrc < n || n == len(src) {
		return nDst, nSrc, err
	}
	if bad {
		return nDst, nSrc, ErrMalformedInput
	}
	return nDst, nSrc, transform.ErrShortSrc
}

func (e *strictEncoder) Reset() {
	e.t.Reset()
}

// validPrefix returns the length of the longest valid UTF-8 prefix of src.
// bad is set when the prefix stops at an invalid sequence rather than at an
// incomplete one that more input could finish.
func validPrefix(src []byte, atEOF bool) (n int, bad bool) {
	for n < len(src) {
		if src[n] < utf8.RuneSelf {
			n++
			continue
		}
		r, size := utf8.DecodeRune(src[n:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[n:]) {
				return n, false
			}
			return n, true
		}
		n += size
	}
	return n, false
}
