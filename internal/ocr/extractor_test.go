package ocr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clinvara/trial-criteria/internal/heuristic"
)

// fakeEngine returns canned text per page path.
type fakeEngine struct {
	name      string
	available bool
	pages     map[string]string
	failOn    map[string]bool
	calls     int
}

func (f *fakeEngine) Name() string                       { return f.name }
func (f *fakeEngine) Available(ctx context.Context) bool { return f.available }

func (f *fakeEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	f.calls++
	if f.failOn[imagePath] {
		return "", errors.New("recognition failed")
	}
	return f.pages[imagePath], nil
}

func newTestExtractor(engines ...Engine) *RecoveryExtractor {
	e := NewRecoveryExtractor(Config{}, heuristic.NewExtractor(nil), nil)
	e.engines = engines
	return e
}

func TestExtract_MissingDocument(t *testing.T) {
	e := newTestExtractor(&fakeEngine{name: "fake", available: true})
	inc, exc := e.Extract(context.Background(), "/nonexistent/protocol.pdf")
	if len(inc) != 0 || len(exc) != 0 {
		t.Errorf("missing document must yield empty lists, got %v %v", inc, exc)
	}
}

func TestExtract_EmptyPath(t *testing.T) {
	e := newTestExtractor(&fakeEngine{name: "fake", available: true})
	inc, exc := e.Extract(context.Background(), "")
	if len(inc) != 0 || len(exc) != 0 {
		t.Errorf("empty path must yield empty lists, got %v %v", inc, exc)
	}
}

func TestSelectEngine_PriorityOrder(t *testing.T) {
	first := &fakeEngine{name: "first", available: false}
	second := &fakeEngine{name: "second", available: true}
	third := &fakeEngine{name: "third", available: true}
	e := newTestExtractor(first, second, third)

	got := e.selectEngine(context.Background())
	if got == nil || got.Name() != "second" {
		t.Fatalf("selectEngine picked %v, want second", got)
	}
}

func TestSelectEngine_NoneAvailable(t *testing.T) {
	e := newTestExtractor(&fakeEngine{name: "a"}, &fakeEngine{name: "b"})
	if got := e.selectEngine(context.Background()); got != nil {
		t.Errorf("selectEngine = %v, want nil", got)
	}
}

func TestRecognizePages_JoinsWithBlankLine(t *testing.T) {
	eng := &fakeEngine{
		name:      "fake",
		available: true,
		pages: map[string]string{
			"p1.png": "Inclusion Criteria\n1. Age >= 18",
			"p2.png": "Exclusion Criteria\n1. Pregnant",
		},
	}
	e := newTestExtractor(eng)
	got := e.recognizePages(context.Background(), eng, []string{"p1.png", "p2.png"})
	want := "Inclusion Criteria\n1. Age >= 18\n\nExclusion Criteria\n1. Pregnant"
	if got != want {
		t.Errorf("joined text = %q, want %q", got, want)
	}
}

func TestRecognizePages_SkipsFailedAndBlankPages(t *testing.T) {
	eng := &fakeEngine{
		name:      "fake",
		available: true,
		pages: map[string]string{
			"p1.png": "Inclusion Criteria\n1. Age >= 18",
			"p2.png": "   \n ",
			"p4.png": "Exclusion Criteria\n1. Pregnant",
		},
		failOn: map[string]bool{"p3.png": true},
	}
	e := newTestExtractor(eng)
	got := e.recognizePages(context.Background(), eng, []string{"p1.png", "p2.png", "p3.png", "p4.png"})
	want := "Inclusion Criteria\n1. Age >= 18\n\nExclusion Criteria\n1. Pregnant"
	if got != want {
		t.Errorf("joined text = %q, want %q", got, want)
	}
	if eng.calls != 4 {
		t.Errorf("engine called %d times, want 4 (one per page)", eng.calls)
	}
}

func TestPaddleOutputParsing(t *testing.T) {
	runner := &fakeRunner{
		stdout: "[[[1,2],[3,4]], ('Inclusion Criteria', 0.99)]\n[[[5,6],[7,8]], ('1. Age >= 18', 0.97)]\n",
	}
	eng := NewPaddleEngine("", runner)
	got, err := eng.Recognize(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	want := "Inclusion Criteria\n1. Age >= 18"
	if got != want {
		t.Errorf("parsed text = %q, want %q", got, want)
	}
}

// fakeRunner returns a fixed stdout for any command.
type fakeRunner struct {
	stdout string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	return []byte(f.stdout), nil, nil
}

func TestEnginesByName(t *testing.T) {
	engines := enginesByName([]string{"paddleocr", "bogus", "tesseract"}, &fakeRunner{})
	if len(engines) != 2 {
		t.Fatalf("got %d engines, want 2", len(engines))
	}
	if engines[0].Name() != "paddleocr" || engines[1].Name() != "tesseract" {
		t.Errorf("unexpected order: %s, %s", engines[0].Name(), engines[1].Name())
	}
}

func TestEngineRecognize_Error(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("exit status 1")}
	eng := NewTesseractEngine("", runner)
	if _, err := eng.Recognize(context.Background(), "page.png"); err == nil {
		t.Fatal("expected error from failing runner")
	}
}
