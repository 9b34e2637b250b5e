// pkg/compress/frame.go

package compress

import (
	"AveIO/pkg/chunk"
	"AveIO/pkg/utils"

	"github.com/pkg/errors"
)

const (
	headerSize = 8
	// MaxBlockSize bounds the raw size a frame header may announce.
	MaxBlockSize = 256 << 20
)

// ErrCorrupt is returned for frames that can't be decoded.
var ErrCorrupt = errors.New("compress: corrupt frame")

// NewStage compresses every non-empty block into its own frame:
// [u32 compressed length][u32 raw length][payload], big endian.
func NewStage(c Compressor) chunk.Encoder {
	return chunk.EncoderFunc(func(block []byte, final bool) ([]byte, error) {
		if len(block) == 0 {
			return nil, nil
		}
		if len(block) > MaxBlockSize {
			return nil, errors.Wrapf(chunk.ErrInvalidArgument, "block of %d bytes exceeds %d", len(block), MaxBlockSize)
		}
		buf := make([]byte, headerSize+c.CompressBound(len(block)))
		n, err := c.Compress(buf[headerSize:], block)
		if err != nil {
			return nil, errors.Wrapf(err, "%s compress", c.Name())
		}
		hdr := utils.FromBuffer(buf[:headerSize])
		hdr.Put32(uint32(n))
		hdr.Put32(uint32(len(block)))
		return buf[:headerSize+n], nil
	})
}

// NewUnframer reverses NewStage. Frames may be split across blocks in any
// way; a stream ending inside a frame fails with chunk.ErrTrailingData.
func NewUnframer(c Compressor) chunk.Encoder {
	return chunk.NewBufferedEncoder(chunk.PrefixEncoderFunc(func(block []byte, final bool) ([]byte, int, error) {
		var out []byte
		off := 0
		for len(block)-off >= headerSize {
			hdr := utils.ReadBuffer(block[off : off+headerSize])
			clen, rlen := int(hdr.Get32()), int(hdr.Get32())
			if rlen > MaxBlockSize || clen > c.CompressBound(MaxBlockSize) {
				return nil, off, errors.Wrapf(ErrCorrupt, "frame at %d announces %d/%d bytes", off, clen, rlen)
			}
			if len(block)-off-headerSize < clen {
				break
			}
			raw := make([]byte, rlen)
			n, err := c.Decompress(raw, block[off+headerSize:off+headerSize+clen])
			if err != nil {
				return nil, off, errors.Wrapf(ErrCorrupt, "%s: %s", c.Name(), err)
			}
			if n != rlen {
				return nil, off, errors.Wrapf(ErrCorrupt, "frame at %d: got %d of %d bytes", off, n, rlen)
			}
			out = append(out, raw...)
			off += headerSize + clen
		}
		return out, off, nil
	}))
}
