package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
	"github.com/clinvara/trial-criteria/internal/heuristic"
)

type Config struct {
	Pdftoppm string   // binary name or absolute path; if empty -> "pdftoppm"
	Engines  []string // priority order; default paddleocr, easyocr, tesseract
	DPI      int      // rasterization DPI, default 300
	MaxPages int      // 0 = no limit
	Timeout  time.Duration
}

// RecoveryExtractor is the OCR strategy: it recovers text from documents
// whose embedded text layer is garbled or missing, then runs the heuristic
// extractor over the recognized text. Every failure mode degrades to empty
// candidate lists; OCR being unavailable is a normal state, not an error.
type RecoveryExtractor struct {
	cfg       Config
	runner    Runner
	engines   []Engine
	heuristic *heuristic.Extractor
	logger    *slog.Logger
}

func NewRecoveryExtractor(cfg Config, h *heuristic.Extractor, logger *slog.Logger) *RecoveryExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if len(cfg.Engines) == 0 {
		cfg.Engines = []string{"paddleocr", "easyocr", "tesseract"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if h == nil {
		h = heuristic.NewExtractor(logger)
	}
	runner := newExecRunner(logger)
	return &RecoveryExtractor{
		cfg:       cfg,
		runner:    runner,
		engines:   enginesByName(cfg.Engines, runner),
		heuristic: h,
		logger:    logger,
	}
}

// Extract recovers text from the document at path and returns (inclusion,
// exclusion) candidates. Missing document, no usable engine, or a failed
// render all yield empty lists without error.
func (e *RecoveryExtractor) Extract(ctx context.Context, documentPath string) ([]entity.Candidate, []entity.Candidate) {
	text := e.RecoverText(ctx, documentPath)
	if text == "" {
		return nil, nil
	}
	return e.heuristic.Extract(text)
}

// RecoverText renders each page, recognizes it with the first available
// engine, and concatenates per-page text with blank-line separators. Pages
// that fail to render or recognize are skipped, not fatal.
func (e *RecoveryExtractor) RecoverText(ctx context.Context, documentPath string) string {
	if documentPath == "" {
		return ""
	}
	if _, err := os.Stat(documentPath); err != nil {
		e.logger.Debug("ocr.skip.missing_document", "path", documentPath)
		return ""
	}
	if constants.NormalizeExt(filepath.Ext(documentPath)) != "pdf" {
		e.logger.Debug("ocr.skip.not_pdf", "path", documentPath)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	engine := e.selectEngine(ctx)
	if engine == nil {
		e.logger.Warn("ocr.degraded.no_engine",
			"tried", strings.Join(e.cfg.Engines, ","),
			"hint", "OCR strategy disabled for this document",
		)
		return ""
	}

	pages, cleanup, err := e.renderPages(ctx, documentPath)
	if err != nil {
		e.logger.Warn("ocr.degraded.render_failed", "path", documentPath, "error", err)
		return ""
	}
	defer cleanup()

	return e.recognizePages(ctx, engine, pages)
}

// recognizePages runs the engine over each page image and joins the results
// with a blank-line separator. A page-level failure is logged and skipped.
func (e *RecoveryExtractor) recognizePages(ctx context.Context, engine Engine, pages []string) string {
	var b strings.Builder
	recognized := 0
	for i, img := range pages {
		txt, err := engine.Recognize(ctx, img)
		if err != nil {
			e.logger.Warn("ocr.page.failed", "engine", engine.Name(), "page", i+1, "error", err)
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
		recognized++
	}

	e.logger.Info("ocr.recover.done",
		"engine", engine.Name(),
		"pages", len(pages),
		"recognized", recognized,
	)
	return b.String()
}

// selectEngine probes configured engines in priority order and returns the
// first that initializes, or nil when none do.
func (e *RecoveryExtractor) selectEngine(ctx context.Context) Engine {
	for _, eng := range e.engines {
		if eng.Available(ctx) {
			return eng
		}
		e.logger.Debug("ocr.engine.unavailable", "engine", eng.Name())
	}
	return nil
}
