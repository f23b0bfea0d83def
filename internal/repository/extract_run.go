package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
	"github.com/clinvara/trial-criteria/internal/pipeline"
)

type ExtractRunRepository interface {
	Start(ctx context.Context, studyID uuid.UUID, protocolPath string) (*entity.ExtractRun, error)
	FinishMerged(ctx context.Context, runID uuid.UUID, out pipeline.Outcome) error
	FinishFailure(ctx context.Context, runID uuid.UUID, message string) error
	GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractRun, error)
	LatestForStudy(ctx context.Context, studyID uuid.UUID) (*entity.ExtractRun, error)
}

type extractRunRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewExtractRunRepository(db *sql.DB, log *slog.Logger) ExtractRunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractRunRepo{db: db, log: log}
}

func (r *extractRunRepo) Start(ctx context.Context, studyID uuid.UUID, protocolPath string) (*entity.ExtractRun, error) {
	run := &entity.ExtractRun{
		ID:           uuid.New(),
		StudyID:      studyID,
		ProtocolPath: protocolPath,
		Status:       string(constants.RunStatusRunning),
		StartedAt:    time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extract_runs (id, study_id, protocol_path, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.StudyID.String(), run.ProtocolPath, run.Status, run.StartedAt,
	)
	if err != nil {
		r.log.Error("extract_run start failed", "study_id", studyID, "err", err)
		return nil, common.WrapError(err, "insert extract_run")
	}
	r.log.Info("extract_run started", "run_id", run.ID, "study_id", studyID, "protocol", protocolPath)
	return run, nil
}

func (r *extractRunRepo) FinishMerged(ctx context.Context, runID uuid.UUID, out pipeline.Outcome) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extract_runs
		 SET status = ?, heuristic_count = ?, ocr_count = ?, llm_count = ?,
		     inclusion_count = ?, exclusion_count = ?, finished_at = ?
		 WHERE id = ?`,
		string(constants.RunStatusMerged),
		out.HeuristicCount, out.OCRCount, out.LLMCount,
		out.InclusionCount, out.ExclusionCount,
		time.Now().UTC(), runID.String(),
	)
	if err != nil {
		r.log.Error("extract_run finish(MERGED) failed", "run_id", runID, "err", err)
		return common.WrapError(err, "update extract_run")
	}
	r.log.Info("extract_run finished (MERGED)", "run_id", runID,
		"inclusion", out.InclusionCount, "exclusion", out.ExclusionCount)
	return nil
}

func (r *extractRunRepo) FinishFailure(ctx context.Context, runID uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extract_runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(constants.RunStatusFailed), message, time.Now().UTC(), runID.String(),
	)
	if err != nil {
		r.log.Error("extract_run finish(FAILED) failed", "run_id", runID, "err", err)
		return common.WrapError(err, "update extract_run")
	}
	r.log.Warn("extract_run finished (FAILED)", "run_id", runID, "error", message)
	return nil
}

func (r *extractRunRepo) GetByID(ctx context.Context, runID uuid.UUID) (*entity.ExtractRun, error) {
	row := r.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, runID.String())
	return scanRun(row)
}

func (r *extractRunRepo) LatestForStudy(ctx context.Context, studyID uuid.UUID) (*entity.ExtractRun, error) {
	row := r.db.QueryRowContext(ctx,
		selectRun+` WHERE study_id = ? ORDER BY started_at DESC LIMIT 1`, studyID.String())
	return scanRun(row)
}

const selectRun = `SELECT id, study_id, protocol_path, status,
	heuristic_count, ocr_count, llm_count, inclusion_count, exclusion_count,
	error_message, started_at, finished_at
	FROM extract_runs`

func scanRun(row *sql.Row) (*entity.ExtractRun, error) {
	var run entity.ExtractRun
	var id, studyID string
	var errMsg sql.NullString
	var finished sql.NullTime
	err := row.Scan(&id, &studyID, &run.ProtocolPath, &run.Status,
		&run.HeuristicCount, &run.OCRCount, &run.LLMCount,
		&run.InclusionCount, &run.ExclusionCount,
		&errMsg, &run.StartedAt, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "scan extract_run")
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, common.WrapError(err, "parse run id")
	}
	if run.StudyID, err = uuid.Parse(studyID); err != nil {
		return nil, common.WrapError(err, "parse study id")
	}
	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
