// pkg/chunk/text.go

package chunk

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"

	"AveIO/pkg/transcode"

	"github.com/pkg/errors"
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// stripSpace drops line breaks and blanks so that wrapped text input keeps
// its alignment.
var stripSpace = EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
	if !bytes.ContainsAny(block, " \t\r\n") {
		return block, nil
	}
	out := make([]byte, 0, len(block))
	for _, c := range block {
		if !isSpace(c) {
			out = append(out, c)
		}
	}
	return out, nil
})

// NewBase64Encoder encodes with padding; blocks are aligned to 3 bytes so
// padding only ever appears at the end.
func NewBase64Encoder(enc *base64.Encoding) Encoder {
	return newRound(3, EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
		out := make([]byte, enc.EncodedLen(len(block)))
		enc.Encode(out, block)
		return out, nil
	}))
}

// NewBase64Decoder ignores whitespace in its input.
func NewBase64Decoder(enc *base64.Encoding) Encoder {
	return Chain(stripSpace, newRound(4, EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
		out := make([]byte, enc.DecodedLen(len(block)))
		n, err := enc.Decode(out, block)
		if err != nil {
			return nil, errors.Wrap(err, "base64")
		}
		return out[:n], nil
	})))
}

func NewHexEncoder() Encoder {
	return EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
		out := make([]byte, hex.EncodedLen(len(block)))
		hex.Encode(out, block)
		return out, nil
	})
}

func NewHexDecoder() Encoder {
	return Chain(stripSpace, newRound(2, EncoderFunc(func(block []byte, _ bool) ([]byte, error) {
		out := make([]byte, hex.DecodedLen(len(block)))
		n, err := hex.Decode(out, block)
		if err != nil {
			return nil, errors.Wrap(err, "hex")
		}
		return out[:n], nil
	})))
}

// NewCharsetEncoder converts text between charsets. A character split
// across blocks is carried over to the next block.
func NewCharsetEncoder(from, to *transcode.Charset) Encoder {
	conv := transcode.NewConverter(from, to)
	return NewBufferedEncoder(PrefixEncoderFunc(conv.ConvertPrefix))
}
