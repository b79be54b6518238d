//go:build !windows

package update

import (
	"os"
)

// osReplace renames within one file system, which POSIX makes atomic.
func osReplace(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// syncDir fsyncs dir so a completed rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
