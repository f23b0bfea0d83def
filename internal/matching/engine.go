package matching

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clinvara/trial-criteria/internal/common"
)

type Config struct {
	MinAge int // eligibility age threshold, default 18
}

// Engine is the placeholder eligibility evaluator: it reads the processed
// patient table, marks each row eligible when age >= MinAge, and writes the
// table back out with an eligible column. Criteria-aware rule evaluation
// replaces this once criteria are structured beyond plain text.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// Result summarizes one matching run.
type Result struct {
	Total      int           `json:"total"`
	Eligible   int           `json:"eligible"`
	Latency    time.Duration `json:"-"`
	OutputPath string        `json:"output_path"`
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.MinAge <= 0 {
		cfg.MinAge = 18
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Run evaluates patientsCSV and writes the annotated table to outPath.
// The input must have a header row with an age column; an existing
// eligible column is overwritten, otherwise one is appended.
func (e *Engine) Run(patientsCSV, outPath string) (Result, error) {
	start := time.Now()

	f, err := os.Open(patientsCSV)
	if err != nil {
		return Result{}, common.WrapError(err, "open patients csv")
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Result{}, common.WrapError(err, "read patients csv")
	}
	if len(rows) == 0 {
		return Result{}, common.NewAppError("EMPTY_PATIENTS", "patients csv has no header row", common.ErrInvalidInput)
	}

	header := rows[0]
	ageCol := findColumn(header, "age")
	if ageCol < 0 {
		return Result{}, common.NewAppError("NO_AGE_COLUMN", "patients csv has no age column", common.ErrInvalidInput)
	}
	eligCol := findColumn(header, "eligible")
	if eligCol < 0 {
		header = append(header, "eligible")
		eligCol = len(header) - 1
	}
	rows[0] = header

	res := Result{OutputPath: outPath}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		for len(row) < len(header) {
			row = append(row, "")
		}
		eligible := false
		if age, err := strconv.ParseFloat(strings.TrimSpace(row[ageCol]), 64); err == nil {
			eligible = age >= float64(e.cfg.MinAge)
		}
		row[eligCol] = strconv.FormatBool(eligible)
		rows[i] = row
		res.Total++
		if eligible {
			res.Eligible++
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return Result{}, common.WrapError(err, "create match results")
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		return Result{}, common.WrapError(err, "write match results")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, common.WrapError(err, "flush match results")
	}

	res.Latency = time.Since(start)
	e.logger.Info("matching.run.done",
		"patients", res.Total,
		"eligible", res.Eligible,
		"min_age", e.cfg.MinAge,
		"elapsed_ms", res.Latency.Milliseconds(),
	)
	return res, nil
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
