// pkg/object/writer.go

package object

import (
	"bytes"

	"github.com/pkg/errors"
)

// Writer buffers everything written to it and stores it as one object on
// Close.
type Writer struct {
	store  ObjectStorage
	key    string
	buf    bytes.Buffer
	closed bool
}

func NewWriter(store ObjectStorage, key string) *Writer {
	return &Writer{store: store, key: key}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("object writer is closed")
	}
	return w.buf.Write(p)
}

// Close uploads the object. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	size := w.buf.Len()
	if err := w.store.Put(w.key, &w.buf); err != nil {
		return errors.Wrapf(err, "put %s to %s", w.key, w.store)
	}
	logger.Debugf("put %s to %s: %d bytes", w.key, w.store, size)
	return nil
}
