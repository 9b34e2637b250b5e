// pkg/object/stage.go

package object

import (
	"AveIO/pkg/chunk"
	"AveIO/pkg/utils"

	"github.com/pkg/errors"
)

// maxSealedBlock bounds the sealed block length a frame may announce.
const maxSealedBlock = 256 << 20

// NewEncryptStage seals every non-empty block on its own and prefixes it
// with its sealed length (u32, big endian).
func NewEncryptStage(enc Encryptor) chunk.Encoder {
	return chunk.EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
		if len(block) == 0 {
			return nil, nil
		}
		sealed, err := enc.Encrypt(block)
		if err != nil {
			return nil, errors.Wrap(err, "encrypt")
		}
		buf := utils.NewBuffer(uint32(4 + len(sealed)))
		buf.Put32(uint32(len(sealed)))
		buf.Put(sealed)
		return buf.Bytes(), nil
	})
}

// NewDecryptStage reverses NewEncryptStage; sealed blocks may arrive split
// across input blocks.
func NewDecryptStage(enc Encryptor) chunk.Encoder {
	return chunk.NewBufferedEncoder(chunk.PrefixEncoderFunc(func(block []byte, _ bool) ([]byte, int, error) {
		var out []byte
		off := 0
		for len(block)-off >= 4 {
			n := int(utils.ReadBuffer(block[off : off+4]).Get32())
			if n > maxSealedBlock {
				return nil, off, errors.Errorf("sealed block of %d bytes at %d", n, off)
			}
			if len(block)-off-4 < n {
				break
			}
			plain, err := enc.Decrypt(block[off+4 : off+4+n])
			if err != nil {
				return nil, off, errors.Wrap(err, "decrypt")
			}
			out = append(out, plain...)
			off += 4 + n
		}
		return out, off, nil
	}))
}
