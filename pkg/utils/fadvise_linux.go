// pkg/utils/fadvise_linux.go

package utils

import (
	"os"

	"golang.org/x/sys/unix"
)

// AdviseSequential tells the kernel f will be read once from start to end,
// so it can read ahead aggressively and drop pages behind us.
func AdviseSequential(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
