// pkg/chunk/align_test.go

package chunk

import (
	"bytes"
	"testing"

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

// encodeAll pushes data in chunks and then an empty final block.
func encodeAll(t *testing.T, e Encoder, data []byte, chunk int) []byte {
	var out []byte
	for off := 0; off < len(data); off += chunk {
		piece, err := e.Encode(data[off:min(off+chunk, len(data))], false)
		require.NoError(t, err)
		out = append(out, piece...)
	}
	piece, err := e.Encode(nil, true)
	require.NoError(t, err)
	return append(out, piece...)
}

func TestRoundEncoder(t *testing.T) {
	rec := &recorder{}
	e, err := NewRoundEncoder(6, rec)
	require.NoError(t, err)

	var out []byte
	for _, n := range []int{3, 5, 4} {
		piece, err := e.Encode(bytes.Repeat([]byte{'x'}, n), false)
		require.NoError(t, err)
		out = append(out, piece...)
	}
	assert.Equal(t, []int{6, 6}, rec.sizes)
	assert.Empty(t, e.(*roundEncoder).remainder)

	piece, err := e.Encode(nil, true)
	require.NoError(t, err)
	out = append(out, piece...)
	assert.Equal(t, []int{6, 6, 0}, rec.sizes)
	assert.Equal(t, []bool{false, false, true}, rec.finals)
	assert.Len(t, out, 12)

	_, err = NewRoundEncoder(0, rec)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRoundEncoderFinalTail(t *testing.T) {
	rec := &recorder{}
	e, err := NewRoundEncoder(4, rec)
	require.NoError(t, err)
	out := encodeAll(t, e, []byte("0123456789"), 3)
	assert.Equal(t, "0123456789", string(out))
	assert.Equal(t, []int{4, 4, 2}, rec.sizes)
	for _, n := range rec.sizes[:len(rec.sizes)-1] {
		assert.Zero(t, n%4)
	}
}

func TestRoundEncoderCopiesRemainder(t *testing.T) {
	rec := &recorder{}
	e, err := NewRoundEncoder(6, rec)
	require.NoError(t, err)

	buf := []byte("abc")
	_, err = e.Encode(buf, false)
	require.NoError(t, err)
	copy(buf, "XYZ")
	out, err := e.Encode([]byte("def"), false)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(out))
}

func TestFixedEncoder(t *testing.T) {
	rec := &recorder{}
	e, err := NewFixedEncoder(10, rec)
	require.NoError(t, err)
	data := bytes.Repeat([]byte{'y'}, 25)

	out, err := e.Encode(data, false)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10}, rec.sizes)
	assert.Len(t, e.(*fixedEncoder).remainder, 5)

	tail, err := e.Encode(nil, true)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, rec.sizes)
	assert.Equal(t, []bool{false, false, true}, rec.finals)
	assert.Equal(t, data, append(out, tail...))

	rec = &recorder{}
	e, err = NewFixedEncoder(10, rec)
	require.NoError(t, err)
	_, err = e.Encode(data, true)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 5}, rec.sizes)

	_, err = NewFixedEncoder(-1, rec)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestFixedEncoderSeesWholeBlocks(t *testing.T) {
	rec := &recorder{}
	e, err := NewFixedEncoder(7, rec)
	require.NoError(t, err)
	data := bytes.Repeat([]byte("0123456789"), 10)
	for _, chunk := range []int{1, 3, 64, 10000} {
		rec.sizes, rec.finals = nil, nil
		assert.Equal(t, data, encodeAll(t, e, data, chunk))
		assert.Equal(t, []int{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 2}, rec.sizes, "chunk %d", chunk)
	}
}

// quads consumes whole groups of four bytes.
var quads = PrefixEncoderFunc(func(block []byte, final bool) ([]byte, int, error) {
	n := len(block) - len(block)%4
	return append([]byte(nil), block[:n]...), n, nil
})

func TestBufferedEncoder(t *testing.T) {
	e := NewBufferedEncoder(quads)
	out, err := e.Encode([]byte("abcdef"), false)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(out))
	assert.Equal(t, "ef", string(e.(*bufferedEncoder).remainder))

	out, err = e.Encode([]byte("gh"), true)
	require.NoError(t, err)
	assert.Equal(t, "efgh", string(out))
	assert.Nil(t, e.(*bufferedEncoder).remainder)

	e = NewBufferedEncoder(quads)
	_, err = e.Encode([]byte("abcde"), true)
	assert.True(t, errors.Is(err, ErrTrailingData))

	bad := NewBufferedEncoder(PrefixEncoderFunc(func(block []byte, _ bool) ([]byte, int, error) {
		return nil, len(block) + 1, nil
	}))
	_, err = bad.Encode([]byte("x"), false)
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	upper := EncoderFunc(func(b []byte, _ bool) ([]byte, error) { return bytes.ToUpper(b), nil })
	double := EncoderFunc(func(b []byte, _ bool) ([]byte, error) { return append(b, b...), nil })

	c := Chain(upper, nil, Chain(double))
	out, err := c.Encode([]byte("ab"), false)
	require.NoError(t, err)
	assert.Equal(t, "ABAB", string(out))

	out, err = Chain().Encode([]byte("same"), true)
	require.NoError(t, err)
	assert.Equal(t, "same", string(out))

	boom := errors.New("boom")
	failing := EncoderFunc(func([]byte, bool) ([]byte, error) { return nil, boom })
	_, err = Chain(upper, failing, double).Encode([]byte("x"), false)
	assert.Equal(t, boom, err)
}
