// Package images reads the token images that feed the token URI pipeline.
package images

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/models"
)

// DirSource lists the regular files of a single directory.
type DirSource struct{}

func NewDirSource() *DirSource {
	return &DirSource{}
}

// Read returns every non-hidden file in dir with its content, in the order
// os.ReadDir reports them (sorted by filename). Symlinks are followed; one
// that resolves to a directory is skipped like any sub-directory, which is
// never descended into. A dangling link or a special file is an error.
func (s *DirSource) Read(ctx context.Context, dir string) ([]models.ImageAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	assets := make([]models.ImageAsset, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		path := filepath.Join(dir, e.Name())
		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			fi, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("resolve link %s: %w", e.Name(), err)
			}
			if fi.IsDir() {
				continue
			}
			mode = fi.Mode().Type()
		}
		if !mode.IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", e.Name())
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", e.Name(), err)
		}
		assets = append(assets, models.ImageAsset{Filename: e.Name(), Content: content})
	}

	return assets, nil
}
