package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
)

func TestCreateStudyLayout(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	path, err := m.CreateStudy("NCT01234567")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, sub := range []string{"protocol", "criteria", "patients", "matches", "exports"} {
		if fi, err := os.Stat(filepath.Join(path, sub)); err != nil || !fi.IsDir() {
			t.Errorf("missing subdir %s: %v", sub, err)
		}
	}

	if _, err := m.CreateStudy("NCT01234567"); !errors.Is(err, common.ErrAlreadyExists) {
		t.Errorf("duplicate create: expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateStudyRejectsUnsafeName(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := m.CreateStudy(name); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("name %q: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestListStudies(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	names, err := m.ListStudies()
	if err != nil || len(names) != 0 {
		t.Fatalf("empty base: %v %v", names, err)
	}

	for _, n := range []string{"beta", "alpha"} {
		if _, err := m.CreateStudy(n); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	names, err = m.ListStudies()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", names)
	}
}

func TestSaveAndFindProtocol(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if _, err := m.CreateStudy("s1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.ProtocolPath("s1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound before upload, got %v", err)
	}

	src := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(src, []byte("Inclusion Criteria\n1. Age >= 18"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest, err := m.SaveProtocol("s1", src)
	if err != nil {
		t.Fatalf("save protocol: %v", err)
	}
	if filepath.Base(dest) != "protocol.txt" {
		t.Errorf("dest = %s, want protocol.txt", dest)
	}

	found, err := m.ProtocolPath("s1")
	if err != nil || found != dest {
		t.Errorf("protocol path: %v %s", err, found)
	}

	if _, err := m.SaveProtocol("s1", "notes.docx"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("unsupported ext: expected ErrInvalidInput, got %v", err)
	}
}

func TestSavePatients(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if _, err := m.CreateStudy("s1"); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "cohort.csv")
	if err := os.WriteFile(src, []byte("patient_id,age\nP1,40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest, err := m.SavePatients("s1", src)
	if err != nil {
		t.Fatalf("save patients: %v", err)
	}
	if dest != m.PatientsCSVPath("s1") {
		t.Errorf("dest = %s, want %s", dest, m.PatientsCSVPath("s1"))
	}

	// re-upload replaces the earlier table
	if err := os.WriteFile(src, []byte("patient_id,age\nP2,55\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SavePatients("s1", src); err != nil {
		t.Fatalf("re-upload: %v", err)
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "patient_id,age\nP2,55\n" {
		t.Errorf("stored table = %q (%v)", b, err)
	}

	if _, err := m.SavePatients("s1", "patients.xlsx"); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("non-csv upload: expected ErrInvalidInput, got %v", err)
	}
}

func TestCriteriaRoundTrip(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if _, err := m.CreateStudy("s1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.LoadCriteria("s1", constants.Inclusion); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound before save, got %v", err)
	}

	items := []entity.Criterion{
		{ID: "INC1", Text: "Age >= 18 years", Type: entity.CandidateTypeText, Source: constants.SourceLLM, Weight: 3},
	}
	if err := m.SaveCriteria("s1", constants.Inclusion, items); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := m.LoadCriteria("s1", constants.Inclusion)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0] != items[0] {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// nil persists as an empty list, not JSON null
	if err := m.SaveCriteria("s1", constants.Exclusion, nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	got, err = m.LoadCriteria("s1", constants.Exclusion)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
}
