package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
)

// LocalSource enumerates import files under a set of configured root
// directories and opens them for reading.
type LocalSource struct {
	Roots []string
}

func NewLocalSource(roots ...string) *LocalSource {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return &LocalSource{Roots: roots}
}

// Scan yields every .json file under the roots, oldest modification first
// so long-queued files are not starved.
func (s *LocalSource) Scan(ctx context.Context) ([]domain.DiscoveredFile, error) {
	var discovered []domain.DiscoveredFile

	for _, root := range s.Roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
				return nil
			}

			info, err := entry.Info()
			if err != nil {
				return err
			}
			discovered = append(discovered, domain.DiscoveredFile{
				Path:       path,
				ModifiedAt: info.ModTime().UTC(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	sort.Slice(discovered, func(i, j int) bool {
		if !discovered[i].ModifiedAt.Equal(discovered[j].ModifiedAt) {
			return discovered[i].ModifiedAt.Before(discovered[j].ModifiedAt)
		}
		return discovered[i].Path < discovered[j].Path
	})

	return discovered, nil
}

func (s *LocalSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	_ = ctx

	path := sourcePath
	if !filepath.IsAbs(path) && len(s.Roots) > 0 {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(s.Roots[0], sourcePath)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}
