//go:build windows

package update

import (
	"os"
)

// osReplace relies on os.Rename using MoveFileEx with MOVEFILE_REPLACE_EXISTING.
func osReplace(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// syncDir is a no-op; directories cannot be fsynced on windows.
func syncDir(dir string) error { return nil }
