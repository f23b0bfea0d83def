package ingest

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clinvara/trial-criteria/constants"
)

// ScanProtocols walks the given protocol directories and returns every
// stored protocol document, sorted. Hidden files and unknown extensions
// are skipped; a missing root is skipped rather than failing the scan.
func ScanProtocols(roots []string) ([]string, error) {
	var out []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasPrefix(filepath.Base(path), ".") {
				return nil
			}
			if constants.IsAllowedExt(filepath.Ext(path)) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return out, err
		}
	}
	sort.Strings(out)
	return out, nil
}
