package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/clinvara/trial-criteria/constants"
	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/entity"
	"github.com/clinvara/trial-criteria/internal/workspace"
)

// Service produces downloadable artifacts for a study: an XLSX workbook of
// the merged criteria (plus match results when available) and a raw CSV
// passthrough of the match results.
type Service struct {
	ws     *workspace.Manager
	logger *slog.Logger
}

func NewService(ws *workspace.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ws: ws, logger: logger}
}

// MatchResultsCSV returns the stored match results verbatim, or
// common.ErrNotFound when matching has not run.
func (s *Service) MatchResultsCSV(study string) ([]byte, error) {
	b, err := os.ReadFile(s.ws.MatchResultsPath(study))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "read match results")
	}
	return b, nil
}

// CriteriaWorkbook builds an XLSX workbook with one sheet per criteria
// type. At least one criteria list must exist.
func (s *Service) CriteriaWorkbook(study string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := 0
	for _, ct := range []constants.CriteriaType{constants.Inclusion, constants.Exclusion} {
		items, err := s.ws.LoadCriteria(study, ct)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if err := writeCriteriaSheet(f, sheetName(ct), items); err != nil {
			return nil, err
		}
		sheets++
	}
	if sheets == 0 {
		return nil, common.NewAppError("NO_CRITERIA", "no extracted criteria to export", common.ErrNotFound)
	}

	if b, err := s.MatchResultsCSV(study); err == nil {
		if err := writeMatchSheet(f, b); err != nil {
			return nil, err
		}
		sheets++
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	// excelize seeds the workbook with a default sheet; drop it.
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "write workbook")
	}
	s.logger.Info("export.workbook.built",
		"study", study,
		"sheets", sheets,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteWorkbook builds the criteria workbook and stores it under the
// study's exports dir, returning the written path.
func (s *Service) WriteWorkbook(study string) (string, error) {
	b, err := s.CriteriaWorkbook(study)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.ws.ExportsDir(study), "criteria.xlsx")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", common.WrapError(err, "write workbook file")
	}
	return path, nil
}

func writeCriteriaSheet(f *excelize.File, sheet string, items []entity.Criterion) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return common.WrapError(err, "new sheet")
	}

	headers := []string{"ID", "Criterion Text", "Source", "Weight"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return common.WrapError(err, "write header")
		}
	}

	row := 2
	for _, c := range items {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, c.ID)
		write(2, c.Text)
		write(3, string(c.Source))
		write(4, c.Weight)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 80)
	_ = f.SetColWidth(sheet, "C", "D", 12)
	return nil
}

func writeMatchSheet(f *excelize.File, raw []byte) error {
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return common.WrapError(err, "parse match results")
	}

	const sheet = "Match Results"
	if _, err := f.NewSheet(sheet); err != nil {
		return common.WrapError(err, "new sheet")
	}
	for r, record := range records {
		for c, v := range record {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return common.WrapError(err, "write cell")
			}
		}
	}
	return nil
}

func sheetName(ct constants.CriteriaType) string {
	if ct == constants.Exclusion {
		return "Exclusion"
	}
	return "Inclusion"
}
