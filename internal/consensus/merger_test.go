package consensus

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/entity"
)

func candidates(prefix string, texts ...string) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(texts))
	for i, t := range texts {
		out = append(out, entity.NewCandidate(fmt.Sprintf("%s%d", prefix, i+1), t))
	}
	return out
}

func TestMerge_EmptyInputs(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	got := m.Merge(nil, nil, nil, "INC")
	if len(got) != 0 {
		t.Errorf("empty inputs must merge to empty list, got %+v", got)
	}
}

func TestMerge_SkipsBlankText(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	got := m.Merge(candidates("INC", "  ", "", "Age >= 18"), nil, nil, "INC")
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	if got[0].Text != "Age >= 18" {
		t.Errorf("text = %q", got[0].Text)
	}
}

func TestMerge_KeepsNegatedNearSubstring(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	got := m.Merge(candidates("EXC", "Prior therapy with drug X", "No prior therapy"), nil, nil, "EXC")
	if len(got) != 2 {
		t.Fatalf("opposite-sense criteria collapsed: %+v", got)
	}
	texts := map[string]bool{got[0].Text: true, got[1].Text: true}
	if !texts["Prior therapy with drug X"] || !texts["No prior therapy"] {
		t.Errorf("unexpected merged texts: %+v", got)
	}
}

func TestMerge_SequentialIDsAndProvenance(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	heu := candidates("INC", "Adequate hepatic function")
	llm := candidates("INC", "Age greater than 18", "Written informed consent obtained")
	got := m.Merge(heu, nil, llm, "INC")

	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(got), got)
	}
	for i, c := range got {
		wantID := fmt.Sprintf("INC%d", i+1)
		if c.ID != wantID {
			t.Errorf("entry %d id = %q, want %q", i, c.ID, wantID)
		}
	}
	// llm entries outrank the heuristic entry
	if got[0].Source != constants.SourceLLM || got[1].Source != constants.SourceLLM {
		t.Errorf("llm entries must sort first: %+v", got)
	}
	if got[2].Source != constants.SourceHeuristic || got[2].Weight != constants.WeightHeuristic {
		t.Errorf("heuristic entry misattributed: %+v", got[2])
	}
}

func TestMerge_Idempotent(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	heu := candidates("EXC", "Pregnant", "Prior therapy with drug X")
	ocr := candidates("EXC", "Pregnant or nursing", "Severe renal impairment present")
	llm := candidates("EXC", "Pregnant", "Known hypersensitivity to study drug")

	first := m.Merge(heu, ocr, llm, "EXC")
	second := m.Merge(heu, ocr, llm, "EXC")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("merge is not deterministic:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestMerge_DedupInvariant(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	heu := candidates("EXC", "Pregnant", "History of cardiac disease", "pregnant")
	ocr := candidates("EXC", "Pregnant women", "Active systemic infection requiring antibiotics")
	llm := candidates("EXC", "Pregnant", "Known hypersensitivity to study drug")

	got := m.Merge(heu, ocr, llm, "EXC")
	for i := 0; i < len(got); i++ {
		for j := i + 1; j < len(got); j++ {
			if s := Similarity(got[i].Text, got[j].Text); s >= 0.80 {
				t.Errorf("accepted near-duplicates %q / %q (ratio %v)", got[i].Text, got[j].Text, s)
			}
		}
	}
}

func TestMerge_PriorityInvariant(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	heu := candidates("INC", "Age >= 18 years")
	llm := candidates("INC", "Age 18 years or older")

	got := m.Merge(heu, nil, llm, "INC")
	if len(got) != 1 {
		t.Fatalf("near-duplicates must collapse to one entry, got %+v", got)
	}
	if got[0].Source != constants.SourceLLM {
		t.Errorf("merged entry source = %q, want llm", got[0].Source)
	}
	if got[0].Text != "Age 18 years or older" {
		t.Errorf("merged entry kept wrong text: %q", got[0].Text)
	}
	if got[0].ID != "INC1" || got[0].Weight != constants.WeightLLM {
		t.Errorf("unexpected id/weight: %+v", got[0])
	}
}

func TestMerge_StableOrderWithinSource(t *testing.T) {
	m := NewMerger(DefaultConfig(), nil)
	llm := candidates("INC",
		"Confirmed histological diagnosis",
		"Measurable disease per RECIST",
		"Adequate bone marrow reserve",
	)
	got := m.Merge(nil, nil, llm, "INC")
	if len(got) != 3 {
		t.Fatalf("got %d entries: %+v", len(got), got)
	}
	if got[0].Text != "Confirmed histological diagnosis" ||
		got[1].Text != "Measurable disease per RECIST" ||
		got[2].Text != "Adequate bone marrow reserve" {
		t.Errorf("scan order not preserved: %+v", got)
	}
}

func TestMerge_ConfigurableThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	m := NewMerger(cfg, nil)
	heu := candidates("INC", "Age >= 18 years")
	llm := candidates("INC", "Age 18 years or older")

	got := m.Merge(heu, nil, llm, "INC")
	if len(got) != 2 {
		t.Fatalf("with a 0.99 threshold both variants survive, got %+v", got)
	}
}
