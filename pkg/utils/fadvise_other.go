// pkg/utils/fadvise_other.go

//go:build !linux

package utils

import "os"

// AdviseSequential is a no-op where posix_fadvise is unavailable.
func AdviseSequential(f *os.File) error {
	return nil
}
