package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/ocr"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Timeout   time.Duration
}

// TextResult is the recovered protocol text plus provenance for logging.
type TextResult struct {
	Text     string
	Pages    int
	Method   string // "plain-text" | "pdf-text"
	Duration time.Duration
}

// TextReader turns a stored protocol document into plain text: .txt files
// are read directly, PDFs go through the embedded text layer via
// pdftotext. Garbled or missing text layers are the OCR strategy's
// problem, not this reader's.
type TextReader struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger
}

func NewTextReader(cfg Config, logger *slog.Logger) *TextReader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &TextReader{cfg: cfg, runner: ocr.NewExecRunner(logger), logger: logger}
}

// Read extracts the text of the document at path.
func (r *TextReader) Read(ctx context.Context, path string) (TextResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		return TextResult{}, common.NewAppError("BAD_PROTOCOL_TYPE",
			fmt.Sprintf("unsupported protocol file type %q", ext), common.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var res TextResult
	switch ext {
	case "txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return TextResult{}, common.WrapError(err, "read protocol text")
		}
		res = TextResult{Text: string(b), Pages: 1, Method: "plain-text"}
	case "pdf":
		text, pages, err := r.pdfToText(ctx, path)
		if err != nil {
			return TextResult{}, err
		}
		res = TextResult{Text: text, Pages: pages, Method: "pdf-text"}
	}

	res.Duration = time.Since(start)
	r.logger.Info("extract.text.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (r *TextReader) pdfToText(ctx context.Context, path string) (string, int, error) {
	if _, err := api.PageCountFile(path); err != nil {
		return "", 0, common.WrapError(err, "validate pdf")
	}
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := r.runner.Run(ctx, r.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		r.logger.Warn("extract.pdftotext.failed", "path", path, "stderr", string(errb), "error", err)
		return "", 0, common.WrapError(err, "pdftotext")
	}
	text := string(out)
	// pdftotext separates pages with form feeds
	pages := 1 + strings.Count(text, "\f")
	return text, pages, nil
}
