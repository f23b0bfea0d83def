package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
)

type CriterionRepository interface {
	ReplaceForRun(ctx context.Context, runID uuid.UUID, criteriaType constants.CriteriaType, items []entity.Criterion) error
	ListForRun(ctx context.Context, runID uuid.UUID, criteriaType constants.CriteriaType) ([]entity.Criterion, error)
}

type criterionRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewCriterionRepository(db *sql.DB, log *slog.Logger) CriterionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &criterionRepo{db: db, log: log}
}

// ReplaceForRun swaps the stored list for one run and criteria type in a
// single transaction, keeping position equal to merge order.
func (r *criterionRepo) ReplaceForRun(ctx context.Context, runID uuid.UUID, criteriaType constants.CriteriaType, items []entity.Criterion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM criteria WHERE run_id = ? AND criteria_type = ?`,
		runID.String(), string(criteriaType),
	); err != nil {
		return common.WrapError(err, "clear criteria")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO criteria (run_id, criteria_type, criterion_id, text, source, weight, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return common.WrapError(err, "prepare insert")
	}
	defer stmt.Close()

	for i, c := range items {
		if _, err := stmt.ExecContext(ctx,
			runID.String(), string(criteriaType), c.ID, c.Text, string(c.Source), c.Weight, i,
		); err != nil {
			return common.WrapError(err, "insert criterion")
		}
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit")
	}
	r.log.Info("criteria stored", "run_id", runID, "type", criteriaType, "count", len(items))
	return nil
}

func (r *criterionRepo) ListForRun(ctx context.Context, runID uuid.UUID, criteriaType constants.CriteriaType) ([]entity.Criterion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT criterion_id, text, source, weight FROM criteria
		 WHERE run_id = ? AND criteria_type = ? ORDER BY position`,
		runID.String(), string(criteriaType),
	)
	if err != nil {
		return nil, common.WrapError(err, "query criteria")
	}
	defer rows.Close()

	var out []entity.Criterion
	for rows.Next() {
		var c entity.Criterion
		var source string
		if err := rows.Scan(&c.ID, &c.Text, &source, &c.Weight); err != nil {
			return nil, common.WrapError(err, "scan criterion")
		}
		c.Type = entity.CandidateTypeText
		c.Source = constants.Source(source)
		out = append(out, c)
	}
	return out, rows.Err()
}
