// pkg/transcode/config.go

package transcode

import "fmt"

const (
	// DefaultBufferSize is the capacity of each window when no Config is given.
	DefaultBufferSize = 1024
	// MinBufferSize must hold the longest encoded character of any charset.
	MinBufferSize = 16
)

// Config for adapters. A nil *Config means defaults.
type Config struct {
	// BufferSize is the capacity, in bytes, of the input and of the output window.
	BufferSize int
}

func (c *Config) bufferSize(op string) (int, error) {
	if c == nil || c.BufferSize == 0 {
		return DefaultBufferSize, nil
	}
	if c.BufferSize < MinBufferSize {
		return 0, &ArgumentError{op, fmt.Sprintf("buffer size %d is below the minimum %d", c.BufferSize, MinBufferSize)}
	}
	return c.BufferSize, nil
}
