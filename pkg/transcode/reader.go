// pkg/transcode/reader.go

package transcode

import (
	"io"
	"unicode/utf8"

	"AveIO/pkg/utils"
)

var logger = utils.GetLogger("transcode")

type codecState uint8

const (
	stateFilling codecState = iota
	stateFlushing
	stateExhausted
)

// Reader pulls raw units from a source and delivers them transformed. A
// decoding Reader yields UTF-8 text, an encoding Reader yields bytes in its
// charset. A Reader is not safe for concurrent use.
type Reader struct {
	op    string
	text  bool // output is UTF-8
	cs    *Charset
	src   *source
	codec *codec
	in    *window
	out   *window

	state    codecState
	overflow bool // last step filled out; step again before refilling
	closed   bool
	err      error // sticky, never io.EOF

	delivered int64
	mark      int64
}

// NewDecodingReader reads bytes in cs from src and yields UTF-8 text.
func NewDecodingReader(src io.Reader, cs *Charset, conf *Config) (*Reader, error) {
	return newReader("decode", streamSource(src), cs, true, conf)
}

// NewEncodingReader reads UTF-8 text from src and yields bytes in cs.
func NewEncodingReader(src io.Reader, cs *Charset, conf *Config) (*Reader, error) {
	return newReader("encode", streamSource(src), cs, false, conf)
}

// NewBytesReader decodes b, bytes in cs, into UTF-8 text.
func NewBytesReader(b []byte, cs *Charset, conf *Config) (*Reader, error) {
	return newReader("decode", bytesSource(b), cs, true, conf)
}

// NewStringReader encodes s into bytes in cs.
func NewStringReader(s string, cs *Charset, conf *Config) (*Reader, error) {
	return newReader("encode", stringSource(s), cs, false, conf)
}

// NewRuneReader encodes the runes of rr into bytes in cs.
func NewRuneReader(rr io.RuneReader, cs *Charset, conf *Config) (*Reader, error) {
	return newReader("encode", runeSource(rr), cs, false, conf)
}

func newReader(op string, src *source, cs *Charset, decode bool, conf *Config) (*Reader, error) {
	size, err := conf.bufferSize("new reader")
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, &ArgumentError{"new reader", "nil charset"}
	}
	t := cs.NewEncoder()
	if decode {
		t = cs.NewDecoder()
	}
	return &Reader{
		op:    op,
		text:  decode,
		cs:    cs,
		src:   src,
		codec: newCodec(op, t),
		in:    newWindow(size),
		out:   newWindow(size),
	}, nil
}

// Charset returns the charset on the byte side of the reader.
func (r *Reader) Charset() *Charset {
	return r.cs
}

func (r *Reader) check() error {
	if r.closed {
		return ErrClosed
	}
	return r.err
}

func (r *Reader) setErr(err error) error {
	if err != io.EOF {
		r.err = err
	}
	return err
}

// fetch runs one codec step, refilling the input window first unless the
// previous step overflowed.
func (r *Reader) fetch() error {
	if r.state == stateExhausted {
		return io.EOF
	}
	if !r.overflow && r.state == stateFilling {
		r.in.compact()
		n, eof, err := r.src.fill(r.in.space())
		r.in.lim += n
		if err != nil {
			return ioError("read", err)
		}
		if eof {
			r.state = stateFlushing
		}
	}
	res, err := r.codec.step(r.in, r.out, r.state == stateFlushing)
	if err != nil {
		return err
	}
	r.overflow = res == overflow
	if !r.overflow && r.state == stateFlushing {
		r.state = stateExhausted
	}
	return nil
}

// advance makes sure there is output to deliver, or returns io.EOF.
func (r *Reader) advance() error {
	for r.out.remaining() == 0 {
		if err := r.fetch(); err != nil {
			return err
		}
	}
	return nil
}

// Read delivers buffered output, producing more only when none is left.
// After the last unit it returns 0, io.EOF on every call.
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.advance(); err != nil {
		return 0, r.setErr(err)
	}
	n := r.out.drain(p, len(p))
	r.delivered += int64(n)
	return n, nil
}

// ReadSlice reads into p[off:off+n].
func (r *Reader) ReadSlice(p []byte, off, n int) (int, error) {
	if err := checkSlice("read", len(p), off, n); err != nil {
		return 0, err
	}
	return r.Read(p[off : off+n])
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if err := r.advance(); err != nil {
		return 0, r.setErr(err)
	}
	c := r.out.buf[r.out.pos]
	r.out.pos++
	r.delivered++
	return c, nil
}

// ReadRune is only available on readers that produce text.
func (r *Reader) ReadRune() (rune, int, error) {
	if err := r.check(); err != nil {
		return 0, 0, err
	}
	if !r.text {
		return 0, 0, &ArgumentError{"read rune", "reader produces " + r.cs.Name() + " bytes, not text"}
	}
	for !utf8.FullRune(r.out.unread()) {
		if err := r.fetch(); err == io.EOF {
			break
		} else if err != nil {
			return 0, 0, r.setErr(err)
		}
	}
	if r.out.remaining() == 0 {
		return 0, 0, io.EOF
	}
	c, size := utf8.DecodeRune(r.out.unread())
	r.out.pos += size
	r.delivered += int64(size)
	return c, size, nil
}

// Skip transforms and discards up to n output units. It returns io.EOF when
// fewer than n were left.
func (r *Reader) Skip(n int64) (int64, error) {
	if n < 0 {
		return 0, &ArgumentError{"skip", "negative count"}
	}
	if err := r.check(); err != nil {
		return 0, err
	}
	skipped, err := r.discard(n)
	if err != nil {
		return skipped, r.setErr(err)
	}
	return skipped, nil
}

func (r *Reader) discard(n int64) (int64, error) {
	var skipped int64
	for skipped < n {
		if err := r.advance(); err != nil {
			return skipped, err
		}
		max := n - skipped
		if max > int64(r.out.remaining()) {
			max = int64(r.out.remaining())
		}
		d := r.out.drain(nil, int(max))
		skipped += int64(d)
		r.delivered += int64(d)
	}
	return skipped, nil
}

// MarkSupported reports whether the source can be rewound: byte slices,
// strings and streams implementing io.Seeker.
func (r *Reader) MarkSupported() bool {
	return r.src.rewindable()
}

// Mark remembers the current output position for Reset.
func (r *Reader) Mark() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.MarkSupported() {
		return ErrMarkNotSupported
	}
	r.mark = r.delivered
	return nil
}

// Reset rewinds the source, restarts the codec and skips to the last mark,
// or to the beginning when Mark was never called.
func (r *Reader) Reset() error {
	if r.closed {
		return ErrClosed
	}
	if !r.MarkSupported() {
		return ErrMarkNotSupported
	}
	if err := r.src.rewind(); err != nil {
		return r.setErr(ioError("reset", err))
	}
	r.codec.reset()
	r.in.clear()
	r.out.clear()
	r.state, r.overflow, r.err, r.delivered = stateFilling, false, nil, 0
	if _, err := r.discard(r.mark); err != nil && err != io.EOF {
		return r.setErr(err)
	}
	return nil
}

// Close closes the source if it is an io.Closer. Closing twice is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	logger.Debugf("close %s reader (%s, %s source): %d units delivered", r.op, r.cs, r.src.kind, r.delivered)
	return ioError("close", r.src.close())
}
