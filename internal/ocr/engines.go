package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Engine is one OCR capability: page image in, recognized text out. Engines
// are external CLI tools; any of them may be missing on a given host, so
// callers probe with Available before use and treat failure as non-fatal.
type Engine interface {
	Name() string
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// paddle result lines look like "[[...box...], ('text', 0.98)]"; pull the
// quoted text out and ignore geometry and confidence.
var rePaddleText = regexp.MustCompile(`\('((?:[^'\\]|\\.)*)',`)

type paddleEngine struct {
	bin    string
	runner Runner
}

// NewPaddleEngine wraps the paddleocr CLI, the preferred engine when
// installed.
func NewPaddleEngine(bin string, runner Runner) Engine {
	if bin == "" {
		bin = "paddleocr"
	}
	return &paddleEngine{bin: bin, runner: runner}
}

func (e *paddleEngine) Name() string { return "paddleocr" }

func (e *paddleEngine) Available(ctx context.Context) bool {
	_, _, err := e.runner.Run(ctx, e.bin, "--version")
	return err == nil
}

func (e *paddleEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.bin, "--image_dir", imagePath, "--lang", "en", "--use_angle_cls", "true")
	if err != nil {
		return "", fmt.Errorf("paddleocr: %w (%s)", err, truncate(string(errb), 512))
	}
	var texts []string
	for _, m := range rePaddleText.FindAllStringSubmatch(string(out), -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n"), nil
}

type easyEngine struct {
	bin    string
	runner Runner
}

// NewEasyEngine wraps the easyocr CLI; --detail 0 makes it print plain text
// lines with no geometry.
func NewEasyEngine(bin string, runner Runner) Engine {
	if bin == "" {
		bin = "easyocr"
	}
	return &easyEngine{bin: bin, runner: runner}
}

func (e *easyEngine) Name() string { return "easyocr" }

func (e *easyEngine) Available(ctx context.Context) bool {
	_, _, err := e.runner.Run(ctx, e.bin, "-h")
	return err == nil
}

func (e *easyEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.bin, "-l", "en", "--detail", "0", "--gpu", "False", "-f", imagePath)
	if err != nil {
		return "", fmt.Errorf("easyocr: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

type tesseractEngine struct {
	bin    string
	runner Runner
}

// NewTesseractEngine wraps tesseract, the last-resort engine: weakest on
// scanned protocol tables but installed nearly everywhere.
func NewTesseractEngine(bin string, runner Runner) Engine {
	if bin == "" {
		bin = "tesseract"
	}
	return &tesseractEngine{bin: bin, runner: runner}
}

func (e *tesseractEngine) Name() string { return "tesseract" }

func (e *tesseractEngine) Available(ctx context.Context) bool {
	_, _, err := e.runner.Run(ctx, e.bin, "--version")
	return err == nil
}

func (e *tesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.bin, imagePath, "stdout", "-l", "eng")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// enginesByName builds the priority-ordered engine list from configured
// names, silently skipping unknown entries.
func enginesByName(names []string, runner Runner) []Engine {
	var out []Engine
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "paddleocr", "paddle":
			out = append(out, NewPaddleEngine("", runner))
		case "easyocr", "easy":
			out = append(out, NewEasyEngine("", runner))
		case "tesseract":
			out = append(out, NewTesseractEngine("", runner))
		}
	}
	return out
}
