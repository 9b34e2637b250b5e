// pkg/pipeline/config.go

package pipeline

import (
	"AveIO/pkg/chunk"

	"github.com/pkg/errors"
)

const (
	// DefaultReadBlockSize is used by the CLI when no block size is given.
	DefaultReadBlockSize = 64 << 10
	// maxZeroReads bounds consecutive empty fills unless EndOnZeroRead is set.
	maxZeroReads = 100
)

// Config of a pipeline run.
type Config struct {
	// ReadLimit caps the units read from the source; <= 0 is unlimited.
	ReadLimit int64
	// ReadBlockSize is the most units requested per Fill.
	ReadBlockSize int
	// EndOnZeroRead treats an empty fill as the end of the source instead of
	// retrying it.
	EndOnZeroRead bool
	// Encoders are chained in order.
	Encoders []chunk.Encoder
}

func (c *Config) Check() error {
	if c.ReadBlockSize <= 0 {
		return errors.Wrapf(chunk.ErrInvalidArgument, "read block size %d", c.ReadBlockSize)
	}
	for i, e := range c.Encoders {
		if e == nil {
			return errors.Wrapf(chunk.ErrInvalidArgument, "encoder %d is nil", i)
		}
	}
	return nil
}
