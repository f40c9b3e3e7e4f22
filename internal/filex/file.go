// Package filex holds small filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubDir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// CreateInSubDir creates fileName inside the dirName subdirectory of the
// working directory. Only the base of fileName is used and an existing
// file is never overwritten.
func CreateInSubDir(dirName, fileName string) (*os.File, error) {
	dir, err := EnsureSubDir(dirName)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(fileName)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("bad file name %q", fileName)
	}

	f, err := os.OpenFile(filepath.Join(dir, base), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", base, err)
	}
	return f, nil
}
