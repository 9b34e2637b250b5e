// cmd/io.go

package main

import (
	"io"
	"os"

	"AveIO/pkg/utils"

	"github.com/urfave/cli/v2"
)

// openInput opens the i-th argument for reading; a missing argument or "-"
// is stdin. size is 0 when unknown.
func openInput(c *cli.Context, i int) (r io.ReadCloser, size int64, err error) {
	name := c.Args().Get(i)
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), 0, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	if st, err := f.Stat(); err == nil && st.Mode().IsRegular() {
		size = st.Size()
	}
	if err := utils.AdviseSequential(f); err != nil {
		logger.Debugf("fadvise %s: %s", name, err)
	}
	return f, size, nil
}

// openOutput creates the i-th argument; a missing argument or "-" is stdout.
func openOutput(c *cli.Context, i int) (io.WriteCloser, error) {
	name := c.Args().Get(i)
	if name == "" || name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

// nopWriteCloser keeps stdout open when a sink is closed.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
