// pkg/chunk/page.go

package chunk

import (
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Page is a reference-counted block of encoded output.
type Page struct {
	refs int32
	dep  *Page
	Data []byte
}

// NewPage create a new page.
func NewPage(data []byte) *Page {
	return &Page{refs: 1, Data: data}
}

// Slice returns a page sharing data with p; p stays alive until the slice is
// released.
func (p *Page) Slice(off, len int) *Page {
	p.Acquire()
	np := NewPage(p.Data[off : off+len])
	np.dep = p
	return np
}

// Acquire increase the refcount
func (p *Page) Acquire() {
	atomic.AddInt32(&p.refs, 1)
}

// Release decreases the refcount
func (p *Page) Release() {
	if atomic.AddInt32(&p.refs, -1) == 0 {
		if p.dep != nil {
			p.dep.Release()
			p.dep = nil
		}
		p.Data = nil
	}
}

func (p *Page) Refs() int32 {
	return atomic.LoadInt32(&p.refs)
}

type PageReader struct {
	p   *Page
	off int
}

func NewPageReader(p *Page) *PageReader {
	p.Acquire()
	return &PageReader{p, 0}
}

func (r *PageReader) Read(buf []byte) (int, error) {
	n, err := r.ReadAt(buf, int64(r.off))
	r.off += n
	return n, err
}

func (r *PageReader) ReadAt(buf []byte, off int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if r.p == nil {
		return 0, errors.New("page is already released")
	}
	if int(off) >= len(r.p.Data) {
		return 0, io.EOF
	}
	n := copy(buf, r.p.Data[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

// Len is the number of unread bytes.
func (r *PageReader) Len() int {
	if r.p == nil || r.off >= len(r.p.Data) {
		return 0
	}
	return len(r.p.Data) - r.off
}

func (r *PageReader) Close() error {
	if r.p != nil {
		r.p.Release()
		r.p = nil
	}
	return nil
}
