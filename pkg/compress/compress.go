// pkg/compress/compress.go

package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/andybalholm/brotli"
	"github.com/hungys/go-lz4"
)

// ZSTD_LEVEL compression level used by ZStandard
const ZSTD_LEVEL = 1

// Compressor compresses whole blocks into caller-provided buffers.
type Compressor interface {
	Name() string
	CompressBound(int) int
	Compress(dst, src []byte) (int, error)
	Decompress(dst, src []byte) (int, error)
}

// Names of the supported algorithms.
func Names() []string {
	return []string{"none", "lz4", "zstd", "brotli"}
}

// NewCompressor returns nil for an unknown algorithm.
func NewCompressor(algr string) Compressor {
	algr = strings.ToLower(algr)
	if algr == "zstd" {
		return ZStandard{ZSTD_LEVEL}
	} else if algr == "lz4" {
		return LZ4{}
	} else if algr == "brotli" {
		return Brotli{brotli.DefaultCompression}
	} else if algr == "none" || algr == "" {
		return noOp{}
	}
	return nil
}

func tooShort(have, need int) error {
	return fmt.Errorf("buffer too short: %d < %d", have, need)
}

type noOp struct{}

func (n noOp) Name() string            { return "Noop" }
func (n noOp) CompressBound(l int) int { return l }
func (n noOp) Compress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, tooShort(len(dst), len(src))
	}
	copy(dst, src)
	return len(src), nil
}
func (n noOp) Decompress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, tooShort(len(dst), len(src))
	}
	copy(dst, src)
	return len(src), nil
}

// ZStandard implements Compressor with given compression level
type ZStandard struct {
	level int
}

// Name returns name of the algorithm Zstd
func (n ZStandard) Name() string { return "Zstd" }

// CompressBound max size of compressed data
func (n ZStandard) CompressBound(l int) int { return zstd.CompressBound(l) }

// Compress using Zstd
func (n ZStandard) Compress(dst, src []byte) (int, error) {
	d, err := zstd.CompressLevel(dst, src, n.level)
	if err != nil {
		return 0, err
	}
	if len(d) > 0 && len(dst) > 0 && &d[0] != &dst[0] {
		return 0, tooShort(cap(dst), n.CompressBound(len(src)))
	}
	return len(d), err
}

// Decompress using Zstd; dst must hold the whole result.
func (n ZStandard) Decompress(dst, src []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	return zstd.DecompressInto(dst, src)
}

// LZ4 implements Compressor using LZ4 algorithm
type LZ4 struct{}

// Name returns name of the algorithm LZ4
func (l LZ4) Name() string { return "LZ4" }

// CompressBound max size of compressed data
func (l LZ4) CompressBound(size int) int { return lz4.CompressBound(size) }

// Compress using LZ4 algorithm
func (l LZ4) Compress(dst, src []byte) (int, error) {
	return lz4.CompressDefault(src, dst)
}

// Decompress using LZ4 algorithm
func (l LZ4) Decompress(dst, src []byte) (int, error) {
	return lz4.DecompressSafe(src, dst)
}

// Brotli implements Compressor with a quality level from 0 to 11.
type Brotli struct {
	level int
}

func (b Brotli) Name() string { return "Brotli" }

func (b Brotli) CompressBound(l int) int { return l + l>>4 + 64 }

func (b Brotli) Compress(dst, src []byte) (int, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := brotli.NewWriterLevel(buf, b.level)
	if _, err := w.Write(src); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	out := buf.Bytes()
	if len(out) > len(dst) || len(out) > 0 && &out[0] != &dst[0] {
		return 0, tooShort(len(dst), len(out))
	}
	return len(out), nil
}

func (b Brotli) Decompress(dst, src []byte) (int, error) {
	r := brotli.NewReader(bytes.NewReader(src))
	n, err := io.ReadFull(r, dst)
	switch err {
	case nil:
		var one [1]byte
		if m, _ := r.Read(one[:]); m > 0 {
			return 0, tooShort(len(dst), len(dst)+1)
		}
		return n, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return n, nil
	}
	return 0, err
}
