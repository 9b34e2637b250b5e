// pkg/object/interface.go

package object

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("object: not found")

// ObjectStorage is a flat key/value store for whole objects.
type ObjectStorage interface {
	// Description of the object storage.
	String() string
	// Create the bucket if not existed.
	Create() error
	// Get the data for the given object specified by key. A negative limit
	// reads to the end.
	Get(key string, off, limit int64) (io.ReadCloser, error)
	// Put data read from a reader to an object specified by key.
	Put(key string, in io.Reader) error
	// Delete a object, missing keys are not an error.
	Delete(key string) error
}
