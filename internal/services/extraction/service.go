package extraction

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
	"github.com/clinvara/trial-criteria/internal/extract"
	"github.com/clinvara/trial-criteria/internal/pipeline"
	"github.com/clinvara/trial-criteria/internal/repository"
	"github.com/clinvara/trial-criteria/internal/workspace"
)

// Service handles study lifecycle and extraction runs: it owns the
// directory workspace, the run bookkeeping, and handing protocols to the
// consensus pipeline.
type Service struct {
	ws       *workspace.Manager
	reader   *extract.TextReader
	pipe     *pipeline.Pipeline
	studies  repository.StudyRepository
	runs     repository.ExtractRunRepository
	criteria repository.CriterionRepository
	logger   *slog.Logger
}

func NewService(
	ws *workspace.Manager,
	reader *extract.TextReader,
	pipe *pipeline.Pipeline,
	studies repository.StudyRepository,
	runs repository.ExtractRunRepository,
	criteria repository.CriterionRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ws:       ws,
		reader:   reader,
		pipe:     pipe,
		studies:  studies,
		runs:     runs,
		criteria: criteria,
		logger:   logger,
	}
}

// CreateStudy makes the workspace directory and the database row together.
func (s *Service) CreateStudy(ctx context.Context, name string) (*entity.Study, error) {
	name = strings.TrimSpace(name)
	path, err := s.ws.CreateStudy(name)
	if err != nil {
		return nil, err
	}
	study, err := s.studies.Create(ctx, name, path)
	if err != nil {
		return nil, err
	}
	return study, nil
}

// ListStudies returns the registered studies.
func (s *Service) ListStudies(ctx context.Context) ([]entity.Study, error) {
	return s.studies.List(ctx)
}

// UploadProtocol stores the document in the study workspace.
func (s *Service) UploadProtocol(ctx context.Context, studyName, srcPath string) (string, error) {
	if _, err := s.resolveStudy(ctx, studyName); err != nil {
		return "", err
	}
	return s.ws.SaveProtocol(studyName, srcPath)
}

// UploadPatients stores a patient CSV as the study's processed patient
// table, ready for matching.
func (s *Service) UploadPatients(ctx context.Context, studyName, srcPath string) (string, error) {
	if _, err := s.resolveStudy(ctx, studyName); err != nil {
		return "", err
	}
	return s.ws.SavePatients(studyName, srcPath)
}

// Extract runs the full consensus pipeline for the study's stored protocol
// and persists the merged criteria to both the database and the workspace.
// A failed text read degrades to OCR-only input rather than aborting; only
// persistence failures fail the run.
func (s *Service) Extract(ctx context.Context, studyName string) (*entity.ExtractRun, error) {
	study, err := s.resolveStudy(ctx, studyName)
	if err != nil {
		return nil, err
	}
	protocolPath, err := s.ws.ProtocolPath(studyName)
	if err != nil {
		return nil, common.NewAppError("NO_PROTOCOL", "no protocol uploaded for study", common.ErrNotFound)
	}

	ctx = common.WithStudyID(ctx, study.ID.String())
	ctx = common.WithRequestID(ctx, uuid.New().String())

	run, err := s.runs.Start(ctx, study.ID, protocolPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("extraction.run.start",
		"request_id", common.RequestIDFromContext(ctx),
		"study_id", common.StudyIDFromContext(ctx),
		"run_id", run.ID,
		"protocol", protocolPath,
	)

	var text string
	if res, err := s.reader.Read(ctx, protocolPath); err != nil {
		s.logger.Warn("extraction.text_read_failed",
			"study", studyName, "run_id", run.ID, "error", err,
			"hint", "continuing with document-only strategies")
	} else {
		text = res.Text
	}

	inclusion, exclusion, outcome := s.pipe.ExtractAllCriteria(ctx, text, protocolPath)

	if err := s.persist(ctx, studyName, run, inclusion, exclusion); err != nil {
		_ = s.runs.FinishFailure(ctx, run.ID, err.Error())
		return nil, err
	}
	if err := s.runs.FinishMerged(ctx, run.ID, outcome); err != nil {
		return nil, err
	}
	return s.runs.GetByID(ctx, run.ID)
}

func (s *Service) persist(ctx context.Context, studyName string, run *entity.ExtractRun, inclusion, exclusion []entity.Criterion) error {
	if err := s.criteria.ReplaceForRun(ctx, run.ID, constants.Inclusion, inclusion); err != nil {
		return err
	}
	if err := s.criteria.ReplaceForRun(ctx, run.ID, constants.Exclusion, exclusion); err != nil {
		return err
	}
	if err := s.ws.SaveCriteria(studyName, constants.Inclusion, inclusion); err != nil {
		return err
	}
	return s.ws.SaveCriteria(studyName, constants.Exclusion, exclusion)
}

// LatestRun returns the most recent extraction run for the study.
func (s *Service) LatestRun(ctx context.Context, studyName string) (*entity.ExtractRun, error) {
	study, err := s.resolveStudy(ctx, studyName)
	if err != nil {
		return nil, err
	}
	return s.runs.LatestForStudy(ctx, study.ID)
}

// resolveStudy looks the study up by name, registering a row for a
// workspace directory that exists on disk but not yet in the database
// (e.g. created by hand or discovered by the watcher).
func (s *Service) resolveStudy(ctx context.Context, name string) (*entity.Study, error) {
	study, err := s.studies.GetByName(ctx, name)
	if err == nil {
		return study, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	studies, lerr := s.ws.ListStudies()
	if lerr != nil {
		return nil, lerr
	}
	for _, n := range studies {
		if n == name {
			return s.studies.Create(ctx, name, s.ws.StudyPath(name))
		}
	}
	return nil, common.ErrNotFound
}
