package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
)

// Per-study layout under the base directory.
var subdirs = []string{"protocol", "criteria", "patients", "matches", "exports"}

// Manager owns the on-disk study layout: one directory per study with the
// fixed subdirectory set, criteria persisted as JSON, patients and match
// results as CSV.
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = "studies"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

func (m *Manager) BaseDir() string { return m.baseDir }

func (m *Manager) StudyPath(name string) string {
	return filepath.Join(m.baseDir, name)
}

// CreateStudy makes the study directory and its subdirectories. The name
// becomes a directory, so it is validated for filesystem safety first.
func (m *Manager) CreateStudy(name string) (string, error) {
	v := common.NewValidator()
	v.Field("name", name, common.Required, common.MaxLength(120), common.StudyName)
	if v.HasErrors() {
		return "", common.WrapError(common.ErrInvalidInput, v.Error().Error())
	}

	path := m.StudyPath(name)
	if _, err := os.Stat(path); err == nil {
		return "", common.NewAppError("STUDY_EXISTS", "study directory already exists", common.ErrAlreadyExists)
	}
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			return "", common.WrapError(err, "create study layout")
		}
	}
	m.logger.Info("workspace.study.created", "name", name, "path", path)
	return path, nil
}

// ListStudies returns study directory names sorted lexically. A missing
// base directory means no studies yet, not an error.
func (m *Manager) ListStudies() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, common.WrapError(err, "read studies dir")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveProtocol copies the uploaded document into the study's protocol dir
// as protocol.<ext> and returns the destination path.
func (m *Manager) SaveProtocol(study, srcPath string) (string, error) {
	ext := constants.NormalizeExt(filepath.Ext(srcPath))
	if !constants.IsAllowedExt(ext) {
		return "", common.NewAppError("BAD_PROTOCOL_TYPE",
			fmt.Sprintf("unsupported protocol file type %q", ext), common.ErrInvalidInput)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", common.WrapError(err, "open protocol")
	}
	defer src.Close()

	dest := filepath.Join(m.StudyPath(study), "protocol", "protocol."+ext)
	dst, err := os.Create(dest)
	if err != nil {
		return "", common.WrapError(err, "create protocol copy")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", common.WrapError(err, "copy protocol")
	}
	m.logger.Info("workspace.protocol.saved", "study", study, "path", dest)
	return dest, nil
}

// ProtocolPath returns the stored protocol document for the study, or
// common.ErrNotFound when none has been uploaded.
func (m *Manager) ProtocolPath(study string) (string, error) {
	dir := filepath.Join(m.StudyPath(study), "protocol")
	for ext := range constants.AllowedExtensions {
		p := filepath.Join(dir, "protocol."+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", common.ErrNotFound
}

// SaveCriteria persists a merged list as criteria/<type>.json.
func (m *Manager) SaveCriteria(study string, criteriaType constants.CriteriaType, items []entity.Criterion) error {
	if items == nil {
		items = []entity.Criterion{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return common.WrapError(err, "encode criteria")
	}
	path := m.criteriaPath(study, criteriaType)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return common.WrapError(err, "write criteria")
	}
	m.logger.Info("workspace.criteria.saved", "study", study, "type", criteriaType, "count", len(items))
	return nil
}

// LoadCriteria reads criteria/<type>.json; a missing file returns
// common.ErrNotFound.
func (m *Manager) LoadCriteria(study string, criteriaType constants.CriteriaType) ([]entity.Criterion, error) {
	b, err := os.ReadFile(m.criteriaPath(study, criteriaType))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "read criteria")
	}
	var items []entity.Criterion
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, common.WrapError(err, "decode criteria")
	}
	return items, nil
}

func (m *Manager) criteriaPath(study string, criteriaType constants.CriteriaType) string {
	return filepath.Join(m.StudyPath(study), "criteria", string(criteriaType)+".json")
}

// PatientsCSVPath is where uploaded patient data lands.
func (m *Manager) PatientsCSVPath(study string) string {
	return filepath.Join(m.StudyPath(study), "patients", "processed.csv")
}

// SavePatients copies an uploaded patient table into the study's patients
// dir as processed.csv, replacing any earlier upload, and returns the
// destination path.
func (m *Manager) SavePatients(study, srcPath string) (string, error) {
	if constants.NormalizeExt(filepath.Ext(srcPath)) != "csv" {
		return "", common.NewAppError("BAD_PATIENTS_TYPE",
			"patient data must be a .csv file", common.ErrInvalidInput)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", common.WrapError(err, "open patients file")
	}
	defer src.Close()

	dest := m.PatientsCSVPath(study)
	dst, err := os.Create(dest)
	if err != nil {
		return "", common.WrapError(err, "create patients copy")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", common.WrapError(err, "copy patients file")
	}
	m.logger.Info("workspace.patients.saved", "study", study, "path", dest)
	return dest, nil
}

// MatchResultsPath is where the matching engine writes its output.
func (m *Manager) MatchResultsPath(study string) string {
	return filepath.Join(m.StudyPath(study), "matches", "match_results.csv")
}

// ExportsDir holds generated workbooks and metric reports.
func (m *Manager) ExportsDir(study string) string {
	return filepath.Join(m.StudyPath(study), "exports")
}

// ProtocolDirs lists every study's protocol directory, for the inbox
// watcher.
func (m *Manager) ProtocolDirs() ([]string, error) {
	studies, err := m.ListStudies()
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(studies))
	for _, s := range studies {
		dirs = append(dirs, filepath.Join(m.StudyPath(s), "protocol"))
	}
	return dirs, nil
}
