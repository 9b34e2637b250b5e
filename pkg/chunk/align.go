// pkg/chunk/align.go

package chunk

import (
	"github.com/pkg/errors"
)

func checkSize(policy string, size int) error {
	if size <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "%s block size %d", policy, size)
	}
	return nil
}

type roundEncoder struct {
	size      int
	next      Encoder
	remainder []byte
}

// NewRoundEncoder forwards the largest leading multiple of size of what it
// has seen so far and keeps the rest for the next call. The final call
// forwards everything.
func NewRoundEncoder(size int, next Encoder) (Encoder, error) {
	if err := checkSize("round", size); err != nil {
		return nil, err
	}
	return newRound(size, next), nil
}

func newRound(size int, next Encoder) *roundEncoder {
	return &roundEncoder{size: size, next: next}
}

func (r *roundEncoder) Encode(block []byte, final bool) ([]byte, error) {
	combined := join(r.remainder, block)
	cut := len(combined)
	if !final {
		cut -= cut % r.size
	}
	r.remainder = keep(combined[cut:])
	if cut == 0 && !final {
		return nil, nil
	}
	return r.next.Encode(combined[:cut], final)
}

type bufferedEncoder struct {
	next      PrefixEncoder
	remainder []byte
}

// NewBufferedEncoder forwards everything it has and keeps what next did not
// consume. Unconsumed data on the final call is ErrTrailingData.
func NewBufferedEncoder(next PrefixEncoder) Encoder {
	return &bufferedEncoder{next: next}
}

func (b *bufferedEncoder) Encode(block []byte, final bool) ([]byte, error) {
	combined := join(b.remainder, block)
	out, n, err := b.next.EncodePrefix(combined, final)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > len(combined) {
		return nil, errors.Errorf("chunk: prefix encoder consumed %d of %d bytes", n, len(combined))
	}
	if final && n < len(combined) {
		b.remainder = nil
		return nil, errors.Wrapf(ErrTrailingData, "%d bytes", len(combined)-n)
	}
	b.remainder = keep(combined[n:])
	return out, nil
}

type fixedEncoder struct {
	size      int
	next      Encoder
	remainder []byte
}

// NewFixedEncoder calls next once per complete block of size bytes and
// concatenates the results. The final call also forwards the short tail.
func NewFixedEncoder(size int, next Encoder) (Encoder, error) {
	if err := checkSize("fixed", size); err != nil {
		return nil, err
	}
	return &fixedEncoder{size: size, next: next}, nil
}

func (f *fixedEncoder) Encode(block []byte, final bool) ([]byte, error) {
	combined := join(f.remainder, block)
	var out []byte
	off := 0
	for ; len(combined)-off >= f.size; off += f.size {
		piece, err := f.next.Encode(combined[off:off+f.size], false)
		if err != nil {
			return nil, err
		}
		out = append(out, piece...)
	}
	f.remainder = keep(combined[off:])
	if final {
		piece, err := f.next.Encode(f.remainder, true)
		f.remainder = nil
		if err != nil {
			return nil, err
		}
		out = append(out, piece...)
	}
	return out, nil
}
