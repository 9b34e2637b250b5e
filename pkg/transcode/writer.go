// pkg/transcode/writer.go

package transcode

import (
	"io"
	"unicode/utf8"
)

// Writer transforms what is written to it and passes the result to a sink.
// Output is handed to the sink as soon as it is produced, nothing is held
// back between calls.
//
// When the sink fails, the Writer rolls its input window back to the state
// before the failing step and reports how many bytes of the call were
// committed, so a caller that retries the rest gets exactly the output of
// one successful write. A codec that has not yet delivered or absorbed
// anything is reset on rollback, so a byte order mark is not lost. Shift
// state of stateful charsets (ISO-2022-JP) in the middle of a stream is
// not rewound. A Writer is not safe for concurrent use.
type Writer struct {
	op    string
	text  bool // input is UTF-8
	cs    *Charset
	dst   *sink
	codec *codec
	in    *window
	out   *window

	closed   bool
	err      error // coding errors only; sink failures are retryable
	written  int64
	pristine bool // codec state untouched by anything that was committed
}

// NewEncodingWriter accepts UTF-8 text and writes bytes in cs to dst.
func NewEncodingWriter(dst io.Writer, cs *Charset, conf *Config) (*Writer, error) {
	return newWriter("encode", dst, cs, false, conf)
}

// NewDecodingWriter accepts bytes in cs and writes UTF-8 text to dst.
func NewDecodingWriter(dst io.Writer, cs *Charset, conf *Config) (*Writer, error) {
	return newWriter("decode", dst, cs, true, conf)
}

func newWriter(op string, dst io.Writer, cs *Charset, decode bool, conf *Config) (*Writer, error) {
	size, err := conf.bufferSize("new writer")
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, &ArgumentError{"new writer", "nil charset"}
	}
	if dst == nil {
		return nil, &ArgumentError{"new writer", "nil sink"}
	}
	t := cs.NewEncoder()
	if decode {
		t = cs.NewDecoder()
	}
	return &Writer{
		op:       op,
		text:     !decode,
		cs:       cs,
		dst:      newSink(dst),
		codec:    newCodec(op, t),
		in:       newWindow(size),
		out:      newWindow(size),
		pristine: true,
	}, nil
}

func (w *Writer) Charset() *Charset {
	return w.cs
}

func (w *Writer) check() error {
	if w.closed {
		return ErrClosed
	}
	return w.err
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.write(len(p), func(dst []byte, off int) int {
		return copy(dst, p[off:])
	})
}

func (w *Writer) WriteString(s string) (int, error) {
	return w.write(len(s), func(dst []byte, off int) int {
		return copy(dst, s[off:])
	})
}

// WriteSlice writes p[off:off+n].
func (w *Writer) WriteSlice(p []byte, off, n int) (int, error) {
	if err := checkSlice("write", len(p), off, n); err != nil {
		return 0, err
	}
	return w.Write(p[off : off+n])
}

// Append writes s[start:end].
func (w *Writer) Append(s string, start, end int) (int, error) {
	if err := checkSlice("append", len(s), start, end-start); err != nil {
		return 0, err
	}
	return w.WriteString(s[start:end])
}

func (w *Writer) WriteByte(c byte) error {
	_, err := w.write(1, func(dst []byte, _ int) int {
		dst[0] = c
		return 1
	})
	return err
}

// WriteRune is only available on writers that accept text.
func (w *Writer) WriteRune(r rune) (int, error) {
	if err := w.check(); err != nil {
		return 0, err
	}
	if !w.text {
		return 0, &ArgumentError{"write rune", "writer accepts " + w.cs.Name() + " bytes, not text"}
	}
	var b [utf8.UTFMax]byte
	n := utf8.EncodeRune(b[:], r)
	return w.Write(b[:n])
}

// write copies total bytes of caller data into the input window, a window
// at a time, and drains each batch through the codec.
func (w *Writer) write(total int, copyAt func(dst []byte, off int) int) (int, error) {
	if err := w.check(); err != nil {
		return 0, err
	}
	done := 0
	for done < total {
		w.in.compact()
		m := copyAt(w.in.space(), done)
		w.in.lim += m
		committed, err := w.drain(false, m)
		if err != nil {
			return done + committed, err
		}
		done += m
	}
	w.written += int64(done)
	return done, nil
}

// drain steps the codec until the input window underflows, delivering every
// batch of output right away. fresh is the number of bytes at the end of the
// input window that came from the current call. It returns how many of them
// were committed.
func (w *Writer) drain(final bool, fresh int) (int, error) {
	for {
		mark := w.in.pos
		res, err := w.codec.step(w.in, w.out, final)
		if err != nil {
			w.out.clear()
			w.err = err
			return w.rollback(mark, fresh), err
		}
		if w.out.remaining() > 0 {
			perr := w.dst.put(w.out.unread())
			w.out.clear()
			if perr != nil {
				logger.Debugf("%s writer: sink failed, rolled back to %d: %s", w.op, mark, perr)
				return w.rollback(mark, fresh), &IOError{Op: "write", Err: perr, RolledBack: true}
			}
			w.pristine = false
		} else if w.in.pos > mark {
			w.pristine = false
		}
		if res == underflow {
			return fresh, nil
		}
	}
}

// rollback restores the input window to mark and drops the fresh bytes that
// were not consumed before it. Bytes carried over from earlier calls stay.
func (w *Writer) rollback(mark, fresh int) int {
	if w.pristine {
		w.codec.reset()
	}
	unconsumed := w.in.lim - mark
	w.in.pos = mark
	if unconsumed >= fresh {
		w.in.lim -= fresh
		return 0
	}
	w.in.lim = mark
	return fresh - unconsumed
}

// Flush flushes the sink when it has a Flush method.
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}
	return ioError("flush", w.dst.flush())
}

// Close runs the final codec pass, then flushes and closes the sink. The sink
// is closed even when the final pass fails. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	var err error
	if w.err == nil {
		_, err = w.drain(true, 0)
	}
	w.closed = true
	if ferr := w.dst.flush(); err == nil {
		err = ioError("flush", ferr)
	}
	if cerr := w.dst.close(); err == nil {
		err = ioError("close", cerr)
	}
	logger.Debugf("close %s writer (%s): %d units accepted", w.op, w.cs, w.written)
	return err
}
