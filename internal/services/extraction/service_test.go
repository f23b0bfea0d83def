package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/consensus"
	"github.com/clinvara/trial-criteria/internal/extract"
	"github.com/clinvara/trial-criteria/internal/heuristic"
	"github.com/clinvara/trial-criteria/internal/llm"
	"github.com/clinvara/trial-criteria/internal/ocr"
	"github.com/clinvara/trial-criteria/internal/pipeline"
	"github.com/clinvara/trial-criteria/internal/repository"
	"github.com/clinvara/trial-criteria/internal/workspace"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, nil) })

	ws := workspace.NewManager(t.TempDir(), nil)
	pipe := pipeline.New(
		heuristic.NewExtractor(nil),
		ocr.NewRecoveryExtractor(ocr.Config{}, nil, nil),
		llm.NewExtractor(nil, 0, nil),
		consensus.NewMerger(consensus.DefaultConfig(), nil),
		nil,
	)
	return NewService(
		ws,
		extract.NewTextReader(extract.Config{}, nil),
		pipe,
		repository.NewStudyRepository(db, nil),
		repository.NewExtractRunRepository(db, nil),
		repository.NewCriterionRepository(db, nil),
		nil,
	)
}

func TestCreateAndListStudies(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	study, err := s.CreateStudy(ctx, "NCT01234567")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if study.Name != "NCT01234567" {
		t.Errorf("name = %s", study.Name)
	}
	if fi, err := os.Stat(study.Path); err != nil || !fi.IsDir() {
		t.Errorf("workspace dir missing: %v", err)
	}

	list, err := s.ListStudies(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("list: %v %+v", err, list)
	}

	if _, err := s.CreateStudy(ctx, "NCT01234567"); !errors.Is(err, common.ErrAlreadyExists) {
		t.Errorf("duplicate: expected ErrAlreadyExists, got %v", err)
	}
}

func TestUploadPatients(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	if _, err := s.CreateStudy(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "cohort.csv")
	if err := os.WriteFile(src, []byte("patient_id,age\nP1,40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest, err := s.UploadPatients(ctx, "s1", src)
	if err != nil {
		t.Fatalf("upload patients: %v", err)
	}
	if filepath.Base(dest) != "processed.csv" {
		t.Errorf("dest = %s, want processed.csv", dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("stored table missing: %v", err)
	}

	if _, err := s.UploadPatients(ctx, "ghost", src); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown study: expected ErrNotFound, got %v", err)
	}
}

func TestExtractEndToEnd(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.CreateStudy(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "upload.txt")
	protocol := "Inclusion Criteria\n1. Age >= 18\n2. Signed consent\nExclusion Criteria\n1. Pregnant\n2. Prior therapy with drug X"
	if err := os.WriteFile(src, []byte(protocol), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UploadProtocol(ctx, "s1", src); err != nil {
		t.Fatalf("upload: %v", err)
	}

	run, err := s.Extract(ctx, "s1")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if run.Status != string(constants.RunStatusMerged) {
		t.Errorf("status = %s, want MERGED", run.Status)
	}
	if run.InclusionCount != 2 || run.ExclusionCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", run.InclusionCount, run.ExclusionCount)
	}

	// criteria land in the workspace too
	inc, err := s.ws.LoadCriteria("s1", constants.Inclusion)
	if err != nil {
		t.Fatalf("load criteria: %v", err)
	}
	if len(inc) != 2 || inc[0].ID != "INC1" || inc[0].Text != "Age >= 18" {
		t.Errorf("workspace criteria: %+v", inc)
	}

	// and in the database
	stored, err := s.criteria.ListForRun(ctx, run.ID, constants.Exclusion)
	if err != nil {
		t.Fatalf("list stored: %v", err)
	}
	if len(stored) != 2 || stored[1].Text != "Prior therapy with drug X" {
		t.Errorf("stored criteria: %+v", stored)
	}

	latest, err := s.LatestRun(ctx, "s1")
	if err != nil || latest.ID != run.ID {
		t.Errorf("latest run: %v %+v", err, latest)
	}
}

func TestExtractWithoutProtocol(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	if _, err := s.CreateStudy(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Extract(ctx, "s1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveStudyRegistersExistingDirectory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// directory exists but no DB row (e.g. created by hand)
	if _, err := s.ws.CreateStudy("manual"); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "p.txt")
	if err := os.WriteFile(src, []byte("Inclusion Criteria\n1. Adult patients eligible"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UploadProtocol(ctx, "manual", src); err != nil {
		t.Fatalf("upload: %v", err)
	}

	list, err := s.ListStudies(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "manual" {
		t.Errorf("expected registered study, got %v %+v", err, list)
	}

	if _, err := s.UploadProtocol(ctx, "ghost", src); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown study: expected ErrNotFound, got %v", err)
	}
}
