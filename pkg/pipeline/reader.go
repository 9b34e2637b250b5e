// pkg/pipeline/reader.go

package pipeline

import (
	"io"

	"AveIO/pkg/chunk"
)

// Reader produces the pipeline output lazily, one block at a time.
type Reader struct {
	d      *Driver
	page   *chunk.PageReader
	err    error
	closed bool
}

// Pull starts the pipeline in pull mode. Errors, including a second start,
// surface on Read.
func (d *Driver) Pull() *Reader {
	r := &Reader{d: d}
	r.err = d.begin("pull")
	return r
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.page != nil && r.page.Len() > 0 {
			n, _ := r.page.Read(p)
			return n, nil
		}
		if r.err != nil {
			return 0, r.err
		}
		out, err := r.d.step()
		if err != nil {
			r.err = err
			r.d.finish(err)
			continue
		}
		if len(out) > 0 {
			r.setPage(out)
		}
	}
}

func (r *Reader) setPage(out []byte) {
	if r.page != nil {
		r.page.Close()
	}
	pg := chunk.NewPage(out)
	r.page = chunk.NewPageReader(pg)
	pg.Release()
}

// Close releases the current block and closes the source. Closing twice is
// a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.page != nil {
		r.page.Close()
		r.page = nil
	}
	if r.err == ErrStarted {
		return nil
	}
	r.d.finish(ErrClosed)
	return r.d.src.Close()
}

var _ io.ReadCloser = &Reader{}
