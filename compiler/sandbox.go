package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sabouaram/codexec/errtax"
)

// sandboxPerm matches fileman.DirPerm; duplicated here rather than
// imported to keep compiler free of a dependency on fileman's index
// bookkeeping, which a sandbox directory (unlike an uploaded file) has
// no need of.
const sandboxPerm = 0755

// NewSandbox creates {processingRoot}/job_{id}_{epoch}/ per spec.md
// §4.C and returns its path.
func NewSandbox(processingRoot string, jobID uint32) (string, error) {
	dir := filepath.Join(processingRoot, fmt.Sprintf("job_%d_%d", jobID, time.Now().Unix()))
	if err := os.MkdirAll(dir, sandboxPerm); err != nil {
		return "", errtax.FileIo.Errorf("create sandbox %q: %v", dir, err)
	}
	return dir, nil
}

// RemoveSandbox deletes a sandbox directory and everything in it.
func RemoveSandbox(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errtax.FileIo.Errorf("remove sandbox %q: %v", dir, err)
	}
	return nil
}
