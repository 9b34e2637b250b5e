// pkg/transcode/window.go

package transcode

// window is a fixed-capacity byte buffer. Bytes in [pos, lim) are filled but
// not consumed yet, [lim, len(buf)) is free space.
// Invariant: 0 <= pos <= lim <= len(buf).
type window struct {
	buf []byte
	pos int
	lim int
}

func newWindow(size int) *window {
	return &window{buf: make([]byte, size)}
}

func (w *window) unread() []byte {
	return w.buf[w.pos:w.lim]
}

func (w *window) remaining() int {
	return w.lim - w.pos
}

func (w *window) space() []byte {
	return w.buf[w.lim:]
}

func (w *window) full() bool {
	return w.pos == 0 && w.lim == len(w.buf)
}

// compact moves the unconsumed bytes to the front.
func (w *window) compact() {
	if w.pos == 0 {
		return
	}
	w.lim = copy(w.buf, w.buf[w.pos:w.lim])
	w.pos = 0
}

func (w *window) clear() {
	w.pos, w.lim = 0, 0
}

// drain moves up to len(p) unread bytes into p, or discards them when p is nil.
func (w *window) drain(p []byte, max int) int {
	n := w.remaining()
	if n > max {
		n = max
	}
	if p != nil {
		copy(p, w.buf[w.pos:w.pos+n])
	}
	w.pos += n
	return n
}
