// pkg/pipeline/source.go

package pipeline

import (
	"io"
	"os"

	"AveIO/pkg/utils"

	"github.com/juju/ratelimit"
)

// BlockSource produces the raw blocks of a pipeline.
type BlockSource interface {
	// Fill copies up to len(p) units into p. At the end it returns io.EOF,
	// possibly together with the last units. Units returned with any other
	// error are still valid and are encoded before the error is reported.
	Fill(p []byte) (int, error)
	// Available is how many units Fill can return without blocking, or -1
	// when unknown.
	Available() int
	Close() error
}

type readerSource struct {
	r io.Reader
}

// FromReader reads blocks from r and closes it if it is an io.Closer.
func FromReader(r io.Reader) BlockSource {
	if f, ok := r.(*os.File); ok {
		_ = utils.AdviseSequential(f)
	}
	return &readerSource{r}
}

func (s *readerSource) Fill(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *readerSource) Available() int {
	if l, ok := s.r.(interface{ Len() int }); ok {
		return l.Len()
	}
	return -1
}

func (s *readerSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type bytesSource struct {
	b   []byte
	off int
}

func FromBytes(b []byte) BlockSource {
	return &bytesSource{b: b}
}

// FromString avoids copying s up front; blocks are copied out as they are
// filled.
func FromString(s string) BlockSource {
	return &stringSource{s: s}
}

func (s *bytesSource) Fill(p []byte) (int, error) {
	n := copy(p, s.b[s.off:])
	s.off += n
	if s.off == len(s.b) {
		return n, io.EOF
	}
	return n, nil
}

func (s *bytesSource) Available() int { return len(s.b) - s.off }
func (s *bytesSource) Close() error   { return nil }

type stringSource struct {
	s   string
	off int
}

func (s *stringSource) Fill(p []byte) (int, error) {
	n := copy(p, s.s[s.off:])
	s.off += n
	if s.off == len(s.s) {
		return n, io.EOF
	}
	return n, nil
}

func (s *stringSource) Available() int { return len(s.s) - s.off }
func (s *stringSource) Close() error   { return nil }

type channelSource struct {
	ch  <-chan []byte
	cur []byte
}

// FromChannel drains ch; the stream ends when ch is closed. Empty messages
// are zero reads.
func FromChannel(ch <-chan []byte) BlockSource {
	return &channelSource{ch: ch}
}

func (s *channelSource) Fill(p []byte) (int, error) {
	if len(s.cur) == 0 {
		b, ok := <-s.ch
		if !ok {
			return 0, io.EOF
		}
		s.cur = b
	}
	n := copy(p, s.cur)
	s.cur = s.cur[n:]
	return n, nil
}

func (s *channelSource) Available() int { return len(s.cur) }
func (s *channelSource) Close() error   { return nil }

type limitedSource struct {
	BlockSource
	bucket *ratelimit.Bucket
}

// NewLimitedSource throttles src to about bytesPerSecond; a non-positive
// rate returns src unchanged.
func NewLimitedSource(src BlockSource, bytesPerSecond int64) BlockSource {
	if bytesPerSecond <= 0 {
		return src
	}
	return &limitedSource{src, ratelimit.NewBucketWithRate(float64(bytesPerSecond), bytesPerSecond)}
}

func (s *limitedSource) Fill(p []byte) (int, error) {
	n, err := s.BlockSource.Fill(p)
	if n > 0 {
		s.bucket.Wait(int64(n))
	}
	return n, err
}
