// pkg/transcode/source.go

package transcode

import (
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// maxEmptyReads bounds consecutive (0, nil) reads from a stream source.
const maxEmptyReads = 100

type sourceKind uint8

const (
	sourceStream sourceKind = iota
	sourceBytes
	sourceString
	sourceRunes
)

var sourceNames = [...]string{"stream", "bytes", "string", "runes"}

func (k sourceKind) String() string {
	return sourceNames[k]
}

// source is the raw side of a read adapter. kind is fixed at construction
// and selects fill.
type source struct {
	kind  sourceKind
	r     io.Reader
	rr    io.RuneReader
	b     []byte
	s     string
	off   int
	start int64 // stream offset at construction, -1 when the stream can't seek
	fill  func(p []byte) (n int, eof bool, err error)
}

func streamSource(r io.Reader) *source {
	s := &source{kind: sourceStream, r: r, start: -1}
	if sk, ok := r.(io.Seeker); ok {
		if off, err := sk.Seek(0, io.SeekCurrent); err == nil {
			s.start = off
		}
	}
	s.fill = s.fillStream
	return s
}

func bytesSource(b []byte) *source {
	s := &source{kind: sourceBytes, b: b}
	s.fill = s.fillBytes
	return s
}

func stringSource(str string) *source {
	s := &source{kind: sourceString, s: str}
	s.fill = s.fillString
	return s
}

func runeSource(rr io.RuneReader) *source {
	s := &source{kind: sourceRunes, rr: rr}
	s.fill = s.fillRunes
	return s
}

func (s *source) fillStream(p []byte) (int, bool, error) {
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.r.Read(p)
		if err == io.EOF {
			return n, true, nil
		}
		if err != nil || n > 0 {
			return n, false, err
		}
	}
	return 0, false, io.ErrNoProgress
}

func (s *source) fillBytes(p []byte) (int, bool, error) {
	n := copy(p, s.b[s.off:])
	s.off += n
	return n, s.off == len(s.b), nil
}

func (s *source) fillString(p []byte) (int, bool, error) {
	n := copy(p, s.s[s.off:])
	s.off += n
	return n, s.off == len(s.s), nil
}

// fillRunes stores whole runes only; p always has room for a few of them
// because the codec never leaves more than one partial character behind.
func (s *source) fillRunes(p []byte) (int, bool, error) {
	n := 0
	for n+utf8.UTFMax <= len(p) {
		r, size, err := s.rr.ReadRune()
		if err == io.EOF {
			return n, true, nil
		}
		if err != nil {
			return n, false, err
		}
		if r == utf8.RuneError && size == 1 {
			return n, false, errors.Wrap(ErrMalformedInput, "invalid rune from source")
		}
		n += utf8.EncodeRune(p[n:], r)
	}
	return n, false, nil
}

func (s *source) rewindable() bool {
	switch s.kind {
	case sourceBytes, sourceString:
		return true
	case sourceStream:
		return s.start >= 0
	}
	return false
}

// rewind moves the source back to where the adapter started reading.
func (s *source) rewind() error {
	switch s.kind {
	case sourceBytes, sourceString:
		s.off = 0
		return nil
	case sourceStream:
		if s.start >= 0 {
			_, err := s.r.(io.Seeker).Seek(s.start, io.SeekStart)
			return err
		}
	}
	return ErrMarkNotSupported
}

func (s *source) close() error {
	var c io.Closer
	switch s.kind {
	case sourceStream:
		c, _ = s.r.(io.Closer)
	case sourceRunes:
		c, _ = s.rr.(io.Closer)
	}
	if c != nil {
		return c.Close()
	}
	return nil
}
