// pkg/pipeline/pipeline_test.go

package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"AveIO/pkg/chunk"
	"AveIO/pkg/compress"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sizes  []int
	finals []bool
}

func (r *recorder) Encode(block []byte, final bool) ([]byte, error) {
	r.sizes = append(r.sizes, len(block))
	r.finals = append(r.finals, final)
	return append([]byte(nil), block...), nil
}

func blocks(sizes ...int) <-chan []byte {
	ch := make(chan []byte, len(sizes))
	for i, n := range sizes {
		ch <- bytes.Repeat([]byte{byte('a' + i)}, n)
	}
	close(ch)
	return ch
}

func TestPushRound(t *testing.T) {
	rec := &recorder{}
	round, err := chunk.NewRoundEncoder(6, rec)
	require.NoError(t, err)
	d, err := New(FromChannel(blocks(3, 5, 4)), Config{ReadBlockSize: 1024, Encoders: []chunk.Encoder{round}})
	require.NoError(t, err)

	var out bytes.Buffer
	n, err := d.Push(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, "aaabbbbbcccc", out.String())
	assert.Equal(t, []int{6, 6, 0}, rec.sizes)
	assert.Equal(t, []bool{false, false, true}, rec.finals)

	s := d.Stats()
	assert.Len(t, s.ID, 36)
	assert.Equal(t, int64(12), s.Read)
	assert.Equal(t, int64(12), s.Written)
	assert.Equal(t, int64(3), s.Blocks)

	_, err = d.Push(context.Background(), &out)
	assert.Equal(t, ErrStarted, err)
}

func TestPushFixed(t *testing.T) {
	rec := &recorder{}
	fixed, err := chunk.NewFixedEncoder(10, rec)
	require.NoError(t, err)
	d, err := New(FromBytes(bytes.Repeat([]byte{'z'}, 25)), Config{ReadBlockSize: 25, Encoders: []chunk.Encoder{fixed}})
	require.NoError(t, err)
	n, err := d.Push(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
	assert.Equal(t, []int{10, 10, 5}, rec.sizes)
	assert.Equal(t, []bool{false, false, true}, rec.finals)
}

func TestFinalCalledOnce(t *testing.T) {
	for _, size := range []int{1, 7, 64, 10000} {
		rec := &recorder{}
		d, err := New(FromString(strings.Repeat("x", 100)), Config{ReadBlockSize: size, Encoders: []chunk.Encoder{rec}})
		require.NoError(t, err)
		_, err = d.Push(context.Background(), io.Discard)
		require.NoError(t, err)
		finals := 0
		for _, f := range rec.finals {
			if f {
				finals++
			}
		}
		assert.Equal(t, 1, finals, "block size %d", size)
		assert.True(t, rec.finals[len(rec.finals)-1])
		assert.Zero(t, rec.sizes[len(rec.sizes)-1])
	}
}

func TestReadLimit(t *testing.T) {
	d, err := New(FromString("0123456789"), Config{ReadBlockSize: 3, ReadLimit: 4})
	require.NoError(t, err)
	var out bytes.Buffer
	n, err := d.Push(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "0123", out.String())
}

func TestZeroReads(t *testing.T) {
	msgs := func() <-chan []byte {
		ch := make(chan []byte, 3)
		ch <- []byte("ab")
		ch <- []byte{}
		ch <- []byte("cd")
		close(ch)
		return ch
	}

	var out bytes.Buffer
	d, err := New(FromChannel(msgs()), Config{ReadBlockSize: 8, EndOnZeroRead: true})
	require.NoError(t, err)
	_, err = d.Push(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, "ab", out.String())

	out.Reset()
	d, err = New(FromChannel(msgs()), Config{ReadBlockSize: 8})
	require.NoError(t, err)
	_, err = d.Push(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, "abcd", out.String())

	d, err = New(FromReader(stalled{}), Config{ReadBlockSize: 8})
	require.NoError(t, err)
	_, err = d.Push(context.Background(), &out)
	assert.True(t, errors.Is(err, io.ErrNoProgress))
}

type stalled struct{}

func (stalled) Read(p []byte) (int, error) { return 0, nil }

func TestConfigCheck(t *testing.T) {
	for _, c := range []Config{{}, {ReadBlockSize: -1}, {ReadBlockSize: 8, Encoders: []chunk.Encoder{nil}}} {
		_, err := New(FromString("x"), c)
		assert.True(t, errors.Is(err, chunk.ErrInvalidArgument), "%+v", c)
	}
}

func TestPushCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := New(FromString("data"), Config{ReadBlockSize: 1})
	require.NoError(t, err)
	n, err := d.Push(ctx, io.Discard)
	assert.Equal(t, context.Canceled, err)
	assert.Zero(t, n)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

type closeRecorder struct {
	io.Reader
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestPushErrors(t *testing.T) {
	src := &closeRecorder{Reader: strings.NewReader("data")}
	d, err := New(FromReader(src), Config{ReadBlockSize: 2})
	require.NoError(t, err)
	_, err = d.Push(context.Background(), failingWriter{})
	assert.Equal(t, io.ErrClosedPipe, errors.Cause(err))
	assert.Equal(t, 1, src.closed)

	boom := errors.New("boom")
	bad := chunk.EncoderFunc(func([]byte, bool) ([]byte, error) { return nil, boom })
	d, err = New(FromString("data"), Config{ReadBlockSize: 2, Encoders: []chunk.Encoder{bad}})
	require.NoError(t, err)
	_, err = d.Push(context.Background(), io.Discard)
	assert.Equal(t, boom, err)
}

// brokenSource returns its data together with a read failure.
type brokenSource struct {
	data  string
	err   error
	fills int
}

func (b *brokenSource) Fill(p []byte) (int, error) {
	b.fills++
	if b.fills > 1 {
		return 0, b.err
	}
	return copy(p, b.data), b.err
}

func (b *brokenSource) Available() int { return -1 }
func (b *brokenSource) Close() error   { return nil }

func TestReadErrorKeepsData(t *testing.T) {
	boom := errors.New("disk gone")

	d, err := New(&brokenSource{data: "abc", err: boom}, Config{ReadBlockSize: 16})
	require.NoError(t, err)
	var out bytes.Buffer
	n, err := d.Push(context.Background(), &out)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "abc", out.String())
	assert.Equal(t, int64(3), d.Stats().Read)
	assert.Equal(t, int64(3), d.Stats().Written)

	d, err = New(&brokenSource{data: "xyz", err: boom}, Config{ReadBlockSize: 16})
	require.NoError(t, err)
	r := d.Pull()
	pulled, err := io.ReadAll(r)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Equal(t, "xyz", string(pulled))
	assert.Equal(t, int64(3), d.Stats().Read)
	require.NoError(t, r.Close())
}

func TestPullMatchesPush(t *testing.T) {
	data := strings.Repeat("pull mode moves the same bytes as push mode. ", 500)
	conf := func() Config {
		return Config{ReadBlockSize: 777, Encoders: []chunk.Encoder{
			compress.NewStage(compress.NewCompressor("zstd")),
			chunk.NewBase64Encoder(base64.StdEncoding),
		}}
	}

	d, err := New(FromString(data), conf())
	require.NoError(t, err)
	var pushed bytes.Buffer
	_, err = d.Push(context.Background(), &pushed)
	require.NoError(t, err)

	src := &closeRecorder{Reader: strings.NewReader(data)}
	d, err = New(FromReader(src), conf())
	require.NoError(t, err)
	r := d.Pull()
	pulled, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pushed.String(), string(pulled))

	n, err := r.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(len(data)), d.Stats().Read)
	assert.Equal(t, int64(len(pulled)), d.Stats().Written)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, src.closed)
	_, err = r.Read(make([]byte, 8))
	assert.Equal(t, ErrClosed, err)

	_, err = d.Pull().Read(make([]byte, 8))
	assert.Equal(t, ErrStarted, err)

	back, err := New(FromBytes(pulled), Config{ReadBlockSize: 100, Encoders: []chunk.Encoder{
		chunk.NewBase64Decoder(base64.StdEncoding),
		compress.NewUnframer(compress.NewCompressor("zstd")),
	}})
	require.NoError(t, err)
	restored, err := io.ReadAll(back.Pull())
	require.NoError(t, err)
	assert.Equal(t, data, string(restored))
}

func TestPullSmallReads(t *testing.T) {
	d, err := New(FromString("abcdefghij"), Config{ReadBlockSize: 4})
	require.NoError(t, err)
	r := d.Pull()
	var out []byte
	buf := make([]byte, 3)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "abcdefghij", string(out))
}

func TestLimitedSource(t *testing.T) {
	src := NewLimitedSource(FromBytes(make([]byte, 3000)), 1000)
	assert.Equal(t, 3000, src.Available())
	d, err := New(src, Config{ReadBlockSize: 500})
	require.NoError(t, err)
	start := time.Now()
	n, err := d.Push(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), n)
	assert.Greater(t, time.Since(start), time.Second)

	plain := FromString("x")
	assert.Equal(t, plain, NewLimitedSource(plain, 0))
	assert.Equal(t, -1, FromReader(stalled{}).Available())
	assert.Equal(t, 3, FromReader(strings.NewReader("abc")).Available())
}
