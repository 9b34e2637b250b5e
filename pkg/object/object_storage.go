// pkg/object/object_storage.go

package object

import (
	"sort"
	"strings"
	"sync"

	"AveIO/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("object")

// Creator opens a storage of one scheme at endpoint.
type Creator func(endpoint string) (ObjectStorage, error)

var (
	storagesMu sync.Mutex
	storages   = make(map[string]Creator)
)

// Register makes a storage scheme available to CreateStorage.
func Register(name string, register Creator) {
	storagesMu.Lock()
	defer storagesMu.Unlock()
	storages[name] = register
}

// Schemes lists the registered storage names.
func Schemes() []string {
	storagesMu.Lock()
	defer storagesMu.Unlock()
	names := make([]string, 0, len(storages))
	for name := range storages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateStorage opens the storage registered as name.
func CreateStorage(name, endpoint string) (ObjectStorage, error) {
	storagesMu.Lock()
	f, ok := storages[strings.ToLower(name)]
	storagesMu.Unlock()
	if !ok {
		return nil, errors.Errorf("invalid storage: %s", name)
	}
	return f(endpoint)
}

// Open accepts "scheme://endpoint" URLs, e.g. file:///tmp/out or
// redis://localhost:6379/1. Plain paths are file storage.
func Open(uri string) (ObjectStorage, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return CreateStorage("file", uri)
	}
	if scheme == "file" {
		return CreateStorage(scheme, rest)
	}
	return CreateStorage(scheme, uri)
}
