// pkg/transcode/writer_test.go

package transcode

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSink = errors.New("sink unavailable")

// flakySink rejects every n-th write without storing anything.
type flakySink struct {
	bytes.Buffer
	every  int
	calls  int
	closed int
}

func (f *flakySink) Write(p []byte) (int, error) {
	f.calls++
	if f.every > 0 && f.calls%f.every == 0 {
		return 0, errSink
	}
	return f.Buffer.Write(p)
}

func (f *flakySink) Close() error {
	f.closed++
	return nil
}

// writeRetrying writes data in chunks and retries the uncommitted rest of
// each chunk after a failure.
func writeRetrying(t *testing.T, w *Writer, data []byte, chunk int) (failures int) {
	for off := 0; off < len(data); {
		p := data[off:min(off+chunk, len(data))]
		for tries := 0; len(p) > 0; tries++ {
			require.Less(t, tries, 1000, "no progress at offset %d", off)
			n, err := w.Write(p)
			p = p[n:]
			off += n
			if err != nil {
				failures++
				var ie *IOError
				require.True(t, errors.As(err, &ie))
				require.True(t, ie.RolledBack)
				require.Equal(t, errSink, errors.Cause(err))
				require.Greater(t, len(p), 0)
			}
		}
	}
	return failures
}

func TestEncodingWriterChunkSizes(t *testing.T) {
	gbk := MustLookupCharset("gbk")
	want := gbkBytes(t, sampleText)
	for _, chunk := range []int{1, 7, 64, 10000} {
		var out bytes.Buffer
		w, err := NewEncodingWriter(&out, gbk, &Config{BufferSize: MinBufferSize})
		require.NoError(t, err)
		assert.Zero(t, writeRetrying(t, w, []byte(sampleText), chunk))
		require.NoError(t, w.Close())
		assert.Equal(t, want, out.Bytes(), "chunk %d", chunk)
	}
}

func TestWriterRollback(t *testing.T) {
	gbk := MustLookupCharset("gbk")
	encoded := gbkBytes(t, sampleText)

	for _, every := range []int{2, 3, 5} {
		for _, chunk := range []int{1, 7, 64, 10000} {
			sink := &flakySink{every: every}
			w, err := NewEncodingWriter(sink, gbk, &Config{BufferSize: MinBufferSize})
			require.NoError(t, err)
			failures := writeRetrying(t, w, []byte(sampleText), chunk)
			require.NoError(t, w.Close())
			assert.Equal(t, encoded, sink.Bytes(), "encode every %d chunk %d", every, chunk)
			assert.Positive(t, failures)
			assert.Equal(t, 1, sink.closed)

			sink = &flakySink{every: every}
			w, err = NewDecodingWriter(sink, gbk, &Config{BufferSize: 32})
			require.NoError(t, err)
			failures = writeRetrying(t, w, encoded, chunk)
			require.NoError(t, w.Close())
			assert.Equal(t, sampleText, sink.String(), "decode every %d chunk %d", every, chunk)
			assert.Positive(t, failures)
		}
	}
}

func TestWriterRollbackCount(t *testing.T) {
	sink := &flakySink{every: 1}
	w, err := NewEncodingWriter(sink, UTF8, nil)
	require.NoError(t, err)

	n, err := w.Write([]byte("hello"))
	assert.Equal(t, 0, n)
	assert.Error(t, err)

	sink.every = 0
	n, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, w.Close())
	assert.Equal(t, "hello", sink.String())
}

func TestWriterRollbackKeepsByteOrderMark(t *testing.T) {
	utf16 := MustLookupCharset("utf-16")

	sink := &flakySink{every: 1}
	w, err := NewEncodingWriter(sink, utf16, nil)
	require.NoError(t, err)
	n, err := w.WriteString("hi")
	assert.Zero(t, n)
	require.Error(t, err)
	sink.every = 0
	n, err = w.WriteString("hi")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Close())
	assert.Equal(t, []byte{0xfe, 0xff, 0x00, 'h', 0x00, 'i'}, sink.Bytes())

	// a little-endian mark already absorbed by the decoder must survive
	sink = &flakySink{every: 1}
	w, err = NewDecodingWriter(sink, utf16, nil)
	require.NoError(t, err)
	n, err = w.Write([]byte{0xff, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = w.Write([]byte{'h', 0x00})
	assert.Zero(t, n)
	require.Error(t, err)
	sink.every = 0
	n, err = w.Write([]byte{'h', 0x00})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Close())
	assert.Equal(t, "h", sink.String())
}

func TestWriterSinks(t *testing.T) {
	latin1 := MustLookupCharset("iso-8859-1")

	var sb strings.Builder
	w, err := NewDecodingWriter(&sb, latin1, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteByte('h'))
	_, err = w.Write([]byte("\xe9llo "))
	require.NoError(t, err)
	_, err = w.WriteSlice([]byte("xxw\xf6rldxx"), 2, 5)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "héllo wörld", sb.String())

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	w, err = NewEncodingWriter(bw, latin1, nil)
	require.NoError(t, err)
	_, err = w.WriteRune('ü')
	require.NoError(t, err)
	_, err = w.Append("hello world", 5, 11)
	require.NoError(t, err)
	_, err = w.WriteString("!")
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
	require.NoError(t, w.Flush())
	assert.Equal(t, "\xfc world!", buf.String())
	require.NoError(t, w.Close())
}

func TestWriterArguments(t *testing.T) {
	_, err := NewEncodingWriter(&bytes.Buffer{}, UTF8, &Config{BufferSize: 4})
	assert.True(t, IsArgumentError(err))
	_, err = NewEncodingWriter(nil, UTF8, nil)
	assert.True(t, IsArgumentError(err))

	var out bytes.Buffer
	w, err := NewDecodingWriter(&out, UTF8, nil)
	require.NoError(t, err)
	_, err = w.WriteRune('x')
	assert.True(t, IsArgumentError(err))
	_, err = w.WriteSlice(make([]byte, 4), 3, 2)
	assert.True(t, IsArgumentError(err))
	_, err = w.Append("abc", 2, 1)
	assert.True(t, IsArgumentError(err))
	_, err = w.Append("abc", 0, 4)
	assert.True(t, IsArgumentError(err))
	assert.Zero(t, out.Len())
}

func TestWriterClosed(t *testing.T) {
	sink := &flakySink{}
	w, err := NewEncodingWriter(sink, UTF8, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, 1, sink.closed)

	_, err = w.Write([]byte("x"))
	assert.Equal(t, ErrClosed, err)
	_, err = w.WriteString("x")
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, w.WriteByte('x'))
	_, err = w.WriteRune('x')
	assert.Equal(t, ErrClosed, err)
	assert.Equal(t, ErrClosed, w.Flush())
}

func TestWriterCodingErrors(t *testing.T) {
	var out bytes.Buffer
	w, err := NewEncodingWriter(&out, MustLookupCharset("iso-8859-1"), nil)
	require.NoError(t, err)
	_, err = w.WriteString("5€")
	assert.True(t, errors.Is(err, ErrUnmappable))
	_, err2 := w.WriteString("ok")
	assert.Equal(t, err, err2)
	assert.NoError(t, w.Close())

	w, err = NewEncodingWriter(&out, UTF8, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte("ab\xff"))
	assert.True(t, errors.Is(err, ErrMalformedInput))

	out.Reset()
	w, err = NewEncodingWriter(&out, UTF8, nil)
	require.NoError(t, err)
	n, err := w.Write([]byte("ab\xe4\xb8"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	err = w.Close()
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.Equal(t, "ab", out.String())
}
