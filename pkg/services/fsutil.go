package services

import (
	"bytes"
	"os"

	"github.com/natefinch/atomic"
)

const filePerm os.FileMode = 0o644

// WriteFileAtomic replaces path with data in one rename. Files that did not
// exist before get filePerm instead of the temp file's 0600.
func WriteFileAtomic(path string, data []byte) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	if isNew {
		return os.Chmod(path, filePerm)
	}
	return nil
}
