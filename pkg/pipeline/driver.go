// pkg/pipeline/driver.go

package pipeline

import (
	"context"
	"io"
	"time"

	"AveIO/pkg/chunk"
	"AveIO/pkg/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = utils.GetLogger("pipeline")

var (
	// ErrClosed is returned by a pull Reader after Close.
	ErrClosed = errors.New("pipeline: reader is closed")
	// ErrStarted is returned when a Driver is run a second time.
	ErrStarted = errors.New("pipeline: already started")
)

type runState uint8

const (
	stateIdle runState = iota
	stateReading
	stateDraining
	stateDone
)

// Stats of one run.
type Stats struct {
	ID      string
	Read    int64 // source units
	Written int64 // output units
	Blocks  int64
	Elapsed time.Duration
}

// Driver moves blocks from a source through the encoder chain. A Driver
// runs once, either with Push or through the Reader returned by Pull.
type Driver struct {
	conf    Config
	src     BlockSource
	encoder chunk.Encoder
	buf     []byte
	state   runState
	stats   Stats
	start   time.Time
	ended   bool  // finish ran
	pending error // read error returned together with the last block
}

func New(src BlockSource, conf Config) (*Driver, error) {
	if err := conf.Check(); err != nil {
		return nil, err
	}
	return &Driver{
		conf:    conf,
		src:     src,
		encoder: chunk.Chain(conf.Encoders...),
		stats:   Stats{ID: uuid.New().String()},
	}, nil
}

// Stats may be called at any time.
func (d *Driver) Stats() Stats {
	s := d.stats
	if !d.start.IsZero() && !d.ended {
		s.Elapsed = time.Since(d.start)
	}
	return s
}

func (d *Driver) begin(mode string) error {
	if d.state != stateIdle {
		return ErrStarted
	}
	d.state = stateReading
	d.start = time.Now()
	d.buf = make([]byte, d.conf.ReadBlockSize)
	logger.Debugf("pipeline %s: %s with block size %d, read limit %d, %d encoders",
		d.stats.ID, mode, d.conf.ReadBlockSize, d.conf.ReadLimit, len(d.conf.Encoders))
	return nil
}

func (d *Driver) finish(err error) {
	if d.ended {
		return
	}
	d.ended = true
	d.state = stateDone
	d.stats.Elapsed = time.Since(d.start)
	if err != nil && err != io.EOF {
		logger.Debugf("pipeline %s: failed after %d units: %s", d.stats.ID, d.stats.Read, err)
		return
	}
	logger.Debugf("pipeline %s: %d units read, %d written, %d blocks in %s",
		d.stats.ID, d.stats.Read, d.stats.Written, d.stats.Blocks, d.stats.Elapsed)
}

// fill reads one block, honoring ReadLimit and the zero-read policy.
func (d *Driver) fill() (int, error) {
	p := d.buf
	if d.conf.ReadLimit > 0 {
		left := d.conf.ReadLimit - d.stats.Read
		if left <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > left {
			p = p[:left]
		}
	}
	for zeros := 1; ; zeros++ {
		n, err := d.src.Fill(p)
		if n > 0 || err != nil {
			return n, err
		}
		if d.conf.EndOnZeroRead {
			return 0, io.EOF
		}
		if zeros >= maxZeroReads {
			return 0, io.ErrNoProgress
		}
	}
}

// step returns the output of one block, or of the final empty block once
// the source is exhausted, then io.EOF.
func (d *Driver) step() ([]byte, error) {
	if d.state == stateDone {
		return nil, io.EOF
	}
	if d.state == stateReading {
		if d.pending != nil {
			return nil, d.pending
		}
		n, err := d.fill()
		if err == io.EOF {
			d.state = stateDraining
		} else if err != nil {
			err = errors.Wrap(err, "read")
			if n == 0 {
				return nil, err
			}
			// encode what came with the error, fail on the next step
			d.pending = err
		}
		if n > 0 {
			d.stats.Read += int64(n)
			d.stats.Blocks++
			out, err := d.encoder.Encode(d.buf[:n], false)
			if err != nil {
				return nil, err
			}
			d.stats.Written += int64(len(out))
			return out, nil
		}
	}
	d.state = stateDone
	out, err := d.encoder.Encode(nil, true)
	if err != nil {
		return nil, err
	}
	d.stats.Written += int64(len(out))
	return out, nil
}

// Push runs the pipeline to the end, writing every output block to dst, and
// returns the number of source units read. ctx is checked between blocks.
// The source is closed before Push returns.
func (d *Driver) Push(ctx context.Context, dst io.Writer) (read int64, err error) {
	if err = d.begin("push"); err != nil {
		return 0, err
	}
	defer func() {
		if cerr := d.src.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close source")
		}
		d.finish(err)
	}()
	for {
		if err = ctx.Err(); err != nil {
			return d.stats.Read, err
		}
		out, err := d.step()
		if err == io.EOF {
			return d.stats.Read, nil
		} else if err != nil {
			return d.stats.Read, err
		}
		if len(out) == 0 {
			continue
		}
		if _, err = dst.Write(out); err != nil {
			return d.stats.Read, errors.Wrap(err, "write")
		}
	}
}
