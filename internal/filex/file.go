// Package filex holds small filesystem helpers used when preparing local
// state such as the sqlite ledger file.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirPerm = 0o750

// EnsureSubdDir creates dirName under the working directory and returns its
// absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// EnsureParentDir creates the directory that will hold path and returns the
// absolute file path. Relative paths resolve against the working directory.
func EnsureParentDir(path string) (string, error) {
	if filepath.IsAbs(path) {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
		return path, nil
	}

	dir, err := EnsureSubdDir(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}
