// pkg/transcode/sink.go

package transcode

import (
	"bytes"
	"io"
	"strings"
)

type sinkKind uint8

const (
	sinkStream sinkKind = iota
	sinkBuffer
	sinkBuilder
)

// sink is the raw side of a write adapter. put either accepts all of p or
// fails.
type sink struct {
	kind sinkKind
	w    io.Writer
	buf  *bytes.Buffer
	sb   *strings.Builder
	put  func(p []byte) error
}

func newSink(w io.Writer) *sink {
	s := &sink{w: w}
	switch v := w.(type) {
	case *bytes.Buffer:
		s.kind, s.buf, s.put = sinkBuffer, v, s.putBuffer
	case *strings.Builder:
		s.kind, s.sb, s.put = sinkBuilder, v, s.putBuilder
	default:
		s.kind, s.put = sinkStream, s.putStream
	}
	return s
}

func (s *sink) putStream(p []byte) error {
	n, err := s.w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

func (s *sink) putBuffer(p []byte) error {
	s.buf.Write(p)
	return nil
}

func (s *sink) putBuilder(p []byte) error {
	s.sb.Write(p)
	return nil
}

func (s *sink) flush() error {
	if f, ok := s.w.(interface{ Flush() error }); ok && s.kind == sinkStream {
		return f.Flush()
	}
	return nil
}

func (s *sink) close() error {
	if c, ok := s.w.(io.Closer); ok && s.kind == sinkStream {
		return c.Close()
	}
	return nil
}
