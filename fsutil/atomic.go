// Package fsutil provides file system utility functions.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// WriteFileAtomic stages the output of write in a temporary file next to
// path and renames it into place once it is flushed and synced. On any
// error the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	pf, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithStaticPermissions(0644))
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	defer pf.Cleanup()

	bw := bufio.NewWriter(pf)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
