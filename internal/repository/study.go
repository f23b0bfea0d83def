package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
)

type StudyRepository interface {
	Create(ctx context.Context, name, path string) (*entity.Study, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Study, error)
	GetByName(ctx context.Context, name string) (*entity.Study, error)
	List(ctx context.Context) ([]entity.Study, error)
}

type studyRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewStudyRepository(db *sql.DB, log *slog.Logger) StudyRepository {
	if log == nil {
		log = slog.Default()
	}
	return &studyRepo{db: db, log: log}
}

func (r *studyRepo) Create(ctx context.Context, name, path string) (*entity.Study, error) {
	s := &entity.Study{
		ID:        uuid.New(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO studies (id, name, path, created_at) VALUES (?, ?, ?, ?)`,
		s.ID.String(), s.Name, s.Path, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError("STUDY_EXISTS", "study name already in use", common.ErrAlreadyExists)
		}
		r.log.Error("study create failed", "name", name, "err", err)
		return nil, common.WrapError(err, "insert study")
	}
	r.log.Info("study created", "study_id", s.ID, "name", name)
	return s, nil
}

func (r *studyRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Study, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, path, created_at FROM studies WHERE id = ?`, id.String())
	return scanStudy(row)
}

func (r *studyRepo) GetByName(ctx context.Context, name string) (*entity.Study, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, path, created_at FROM studies WHERE name = ?`, name)
	return scanStudy(row)
}

func (r *studyRepo) List(ctx context.Context) ([]entity.Study, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, path, created_at FROM studies ORDER BY created_at`)
	if err != nil {
		return nil, common.WrapError(err, "list studies")
	}
	defer rows.Close()

	var out []entity.Study
	for rows.Next() {
		var s entity.Study
		var id string
		if err := rows.Scan(&id, &s.Name, &s.Path, &s.CreatedAt); err != nil {
			return nil, common.WrapError(err, "scan study")
		}
		s.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, common.WrapError(err, "parse study id")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStudy(row *sql.Row) (*entity.Study, error) {
	var s entity.Study
	var id string
	if err := row.Scan(&id, &s.Name, &s.Path, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "scan study")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, common.WrapError(err, "parse study id")
	}
	s.ID = parsed
	return &s, nil
}

func isUniqueViolation(err error) bool {
	// modernc sqlite surfaces constraint failures in the message text.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
