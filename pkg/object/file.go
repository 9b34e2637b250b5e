// pkg/object/file.go

package object

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"AveIO/pkg/utils"

	"github.com/pkg/errors"
)

type diskStore struct {
	root string
}

func newDisk(root string) (ObjectStorage, error) {
	if root == "" {
		return nil, errors.New("file storage needs a directory")
	}
	return &diskStore{filepath.Clean(root)}, nil
}

func (d *diskStore) String() string {
	return "file://" + d.root + "/"
}

func (d *diskStore) path(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func (d *diskStore) Create() error {
	return os.MkdirAll(d.root, 0755)
}

type fileReader struct {
	io.Reader
	f *os.File
}

func (r *fileReader) Close() error {
	return r.f.Close()
}

func (d *diskStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	} else if err != nil {
		return nil, err
	}
	if off > 0 {
		if _, err := f.Seek(off, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}
	utils.AdviseSequential(f)
	if limit < 0 {
		return f, nil
	}
	return &fileReader{io.LimitReader(f, limit), f}, nil
}

func (d *diskStore) Put(key string, in io.Reader) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp%d", p, rand.Int())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, in); err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err == nil {
		err = os.Rename(tmp, p)
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

func (d *diskStore) Delete(key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func init() {
	Register("file", newDisk)
}
