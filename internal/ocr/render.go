package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// renderPages rasterizes a PDF into per-page PNGs in a temp dir and returns
// the image paths in page order plus a cleanup func. pdfcpu validates the
// document first so an unreadable PDF fails here, before spawning pdftoppm.
func (e *RecoveryExtractor) renderPages(ctx context.Context, path string) ([]string, func(), error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("page count: %w", err)
	}
	if pageCount == 0 {
		return nil, nil, fmt.Errorf("document has no pages")
	}

	tmpDir, err := os.MkdirTemp("", "clinvara-pages-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm produced no images for %d pages", pageCount)
	}
	return matches, cleanup, nil
}
