package heuristic

import (
	"strings"
	"testing"
)

func TestParseBlock_Empty(t *testing.T) {
	if got := ParseBlock("", "INC"); got != nil {
		t.Errorf("ParseBlock(\"\") = %v, want nil", got)
	}
	if got := ParseBlock("  \n \n ", "INC"); got != nil {
		t.Errorf("ParseBlock(whitespace) = %v, want nil", got)
	}
}

func TestParseBlock_NumberedItems(t *testing.T) {
	block := "1. Age >= 18 years\n2. Signed informed consent\n3. Confirmed diagnosis of type 2 diabetes"
	got := ParseBlock(block, "INC")
	want := []string{
		"Age >= 18 years",
		"Signed informed consent",
		"Confirmed diagnosis of type 2 diabetes",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i, c := range got {
		if c.Text != want[i] {
			t.Errorf("candidate %d text = %q, want %q", i, c.Text, want[i])
		}
		wantID := seqID("INC", i+1)
		if c.ID != wantID {
			t.Errorf("candidate %d id = %q, want %q", i, c.ID, wantID)
		}
		if c.Type != "text" {
			t.Errorf("candidate %d type = %q, want %q", i, c.Type, "text")
		}
	}
}

func TestParseBlock_MarkerVariants(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"dash", "- Platelet count above threshold", "Platelet count above threshold"},
		{"bullet glyph", "• Creatinine clearance adequate", "Creatinine clearance adequate"},
		{"paren number", "(3) Stable cardiac function", "Stable cardiac function"},
		{"letter enum", "a) Willing to comply with protocol", "Willing to comply with protocol"},
		{"number dot no space", "4.Absence of active infection", "Absence of active infection"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseBlock(tc.line, "EXC")
			if len(got) != 1 {
				t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
			}
			if got[0].Text != tc.want {
				t.Errorf("text = %q, want %q", got[0].Text, tc.want)
			}
		})
	}
}

func TestParseBlock_FiltersNoise(t *testing.T) {
	block := strings.Join([]string{
		"Inclusion Criteria ............ 12",    // TOC line
		"STUDY POPULATION",                      // all caps heading
		"6.2 Treatment Schedule",                // numbered heading
		"Randomization occurs at Visit 2",       // admin noise
		"1. Age >= 18 years",                    // real criterion
		"Screening occurs during Week -1",       // admin noise
		"2. Able to provide written consent",    // real criterion
	}, "\n")
	got := ParseBlock(block, "INC")
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if got[0].Text != "Age >= 18 years" || got[1].Text != "Able to provide written consent" {
		t.Errorf("unexpected candidates: %+v", got)
	}
}

func TestParseBlock_DropsShortAndLabelCandidates(t *testing.T) {
	block := "1. n/a\n2. Inclusion Criteria\n3. Adequate renal function"
	got := ParseBlock(block, "INC")
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}
	if got[0].Text != "Adequate renal function" {
		t.Errorf("text = %q", got[0].Text)
	}
}

func TestParseBlock_SentenceFallback(t *testing.T) {
	block := "Patients must be adults with a confirmed diagnosis. " +
		"They must provide written informed consent before any procedure. ok."
	got := ParseBlock(block, "INC")
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	if !strings.HasPrefix(got[0].Text, "Patients must be adults") {
		t.Errorf("first sentence = %q", got[0].Text)
	}
	// "ok." is under the minimum sentence length and must be dropped
	for _, c := range got {
		if c.Text == "ok." {
			t.Error("short sentence was not dropped")
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One is here. Two is there? Three ends")
	want := []string{"One is here.", " Two is there?", " Three ends"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("segment %d = %q, want %q", i, got[i], want[i])
		}
	}
}
