package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/consensus"
	"github.com/clinvara/trial-criteria/internal/entity"
	"github.com/clinvara/trial-criteria/internal/heuristic"
	"github.com/clinvara/trial-criteria/internal/llm"
	"github.com/clinvara/trial-criteria/internal/ocr"
)

type stubText struct{ inc, exc []entity.Candidate }

func (s stubText) Extract(string) ([]entity.Candidate, []entity.Candidate) { return s.inc, s.exc }

type stubDoc struct{ inc, exc []entity.Candidate }

func (s stubDoc) Extract(context.Context, string) ([]entity.Candidate, []entity.Candidate) {
	return s.inc, s.exc
}

type stubGen struct{ inc, exc []entity.Candidate }

func (s stubGen) Extract(context.Context, string) ([]entity.Candidate, []entity.Candidate) {
	return s.inc, s.exc
}

func newTestPipeline(h TextStrategy, o DocumentStrategy, l GenerationStrategy) *Pipeline {
	return New(h, o, l, consensus.NewMerger(consensus.DefaultConfig(), nil), nil)
}

func TestExtractAllCriteriaDegradation(t *testing.T) {
	// Fully real components, no input at all: must return two empty lists.
	p := New(
		heuristic.NewExtractor(nil),
		ocr.NewRecoveryExtractor(ocr.Config{}, nil, nil),
		llm.NewExtractor(nil, 0, nil),
		consensus.NewMerger(consensus.DefaultConfig(), nil),
		nil,
	)

	inc, exc, out := p.ExtractAllCriteria(context.Background(), "", "/nonexistent/path")
	if len(inc) != 0 || len(exc) != 0 {
		t.Fatalf("expected empty lists, got %d/%d", len(inc), len(exc))
	}
	if out.HeuristicCount != 0 || out.OCRCount != 0 || out.LLMCount != 0 {
		t.Errorf("expected zero strategy counts, got %+v", out)
	}
}

func TestExtractAllCriteriaEndToEnd(t *testing.T) {
	text := "Inclusion Criteria\n1. Age >= 18\n2. Signed consent\nExclusion Criteria\n1. Pregnant\n2. Prior therapy with drug X"

	p := newTestPipeline(heuristic.NewExtractor(nil), stubDoc{}, stubGen{})
	inc, exc, out := p.ExtractAllCriteria(context.Background(), text, "")

	wantInc := []struct{ id, text string }{
		{"INC1", "Age >= 18"},
		{"INC2", "Signed consent"},
	}
	wantExc := []struct{ id, text string }{
		{"EXC1", "Pregnant"},
		{"EXC2", "Prior therapy with drug X"},
	}
	if len(inc) != len(wantInc) {
		t.Fatalf("inclusion: expected %d criteria, got %+v", len(wantInc), inc)
	}
	for i, w := range wantInc {
		if inc[i].ID != w.id || inc[i].Text != w.text {
			t.Errorf("inclusion[%d] = {%s %q}, want {%s %q}", i, inc[i].ID, inc[i].Text, w.id, w.text)
		}
		if inc[i].Source != constants.SourceHeuristic || inc[i].Weight != constants.WeightHeuristic {
			t.Errorf("inclusion[%d] provenance = %s/%d", i, inc[i].Source, inc[i].Weight)
		}
	}
	if len(exc) != len(wantExc) {
		t.Fatalf("exclusion: expected %d criteria, got %+v", len(wantExc), exc)
	}
	for i, w := range wantExc {
		if exc[i].ID != w.id || exc[i].Text != w.text {
			t.Errorf("exclusion[%d] = {%s %q}, want {%s %q}", i, exc[i].ID, exc[i].Text, w.id, w.text)
		}
	}
	if out.InclusionCount != 2 || out.ExclusionCount != 2 {
		t.Errorf("outcome counts = %+v", out)
	}
}

func TestExtractAllCriteriaPriority(t *testing.T) {
	// Same criterion from two strategies: the generation source must win.
	h := stubText{inc: []entity.Candidate{entity.NewCandidate("INC1", "Age >= 18 years")}}
	g := stubGen{inc: []entity.Candidate{entity.NewCandidate("INC1", "Age 18 years or older")}}

	p := newTestPipeline(h, stubDoc{}, g)
	inc, _, _ := p.ExtractAllCriteria(context.Background(), "x", "")

	if len(inc) != 1 {
		t.Fatalf("near-duplicates must collapse to one entry, got %+v", inc)
	}
	if inc[0].Source != constants.SourceLLM {
		t.Errorf("merged source = %s, want %s", inc[0].Source, constants.SourceLLM)
	}
	if inc[0].Text != "Age 18 years or older" {
		t.Errorf("merged text = %q, want the higher-priority variant", inc[0].Text)
	}
}

func TestExtractAllCriteriaIdempotent(t *testing.T) {
	h := stubText{
		inc: []entity.Candidate{entity.NewCandidate("INC1", "Histologically confirmed diagnosis")},
		exc: []entity.Candidate{entity.NewCandidate("EXC1", "Active infection requiring systemic therapy")},
	}
	g := stubGen{
		inc: []entity.Candidate{entity.NewCandidate("INC1", "ECOG performance status 0-1")},
	}

	p := newTestPipeline(h, stubDoc{}, g)
	inc1, exc1, _ := p.ExtractAllCriteria(context.Background(), "x", "")
	inc2, exc2, _ := p.ExtractAllCriteria(context.Background(), "x", "")

	if !reflect.DeepEqual(inc1, inc2) || !reflect.DeepEqual(exc1, exc2) {
		t.Errorf("repeated runs differ:\n%+v\n%+v", inc1, inc2)
	}
}
