package metrics

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/clinvara/trial-criteria/internal/common"
)

// Trace identifies what produced a match run, for audit.
type Trace struct {
	ModelVersion    string `json:"model_version"`
	CriteriaVersion string `json:"criteria_version"`
	PatientDataset  string `json:"patient_dataset"`
	MatchRunID      string `json:"match_run_id"`
}

// Report holds classification quality of a match run against ground-truth
// labels, plus rough criteria-failure counts.
type Report struct {
	Precision      float64        `json:"precision"`
	Recall         float64        `json:"recall"`
	F1             float64        `json:"f1_score"`
	Accuracy       float64        `json:"accuracy"`
	LatencySeconds float64        `json:"latency_seconds,omitempty"`
	SelfLabelled   bool           `json:"self_labelled"`
	FailureCounts  map[string]int `json:"failure_counts,omitempty"`
	Traceability   Trace          `json:"traceability"`
}

type Calculator struct {
	logger *slog.Logger
}

func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Compute reads a match_results.csv and scores predicted eligibility
// against the true_eligible column. Without that column the predictions
// are scored against themselves (perfect by construction) and the report
// is flagged SelfLabelled.
func (c *Calculator) Compute(matchCSV string, trace Trace) (Report, error) {
	f, err := os.Open(matchCSV)
	if err != nil {
		return Report{}, common.WrapError(err, "open match results")
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Report{}, common.WrapError(err, "read match results")
	}
	if len(rows) == 0 {
		return Report{}, common.NewAppError("EMPTY_RESULTS", "match results csv has no header row", common.ErrInvalidInput)
	}

	header := rows[0]
	eligCol := findColumn(header, "eligible")
	if eligCol < 0 {
		return Report{}, common.NewAppError("NO_ELIGIBLE_COLUMN", "match results csv has no eligible column", common.ErrInvalidInput)
	}
	truthCol := findColumn(header, "true_eligible")

	rep := Report{
		SelfLabelled: truthCol < 0,
		Traceability: trace,
	}
	if rep.SelfLabelled {
		c.logger.Warn("metrics.self_labelled", "path", matchCSV,
			"hint", "no true_eligible column; scoring predictions against themselves")
	}

	var tp, fp, tn, fn int
	for _, row := range rows[1:] {
		if eligCol >= len(row) {
			continue
		}
		pred := parseBool(row[eligCol])
		truth := pred
		if truthCol >= 0 && truthCol < len(row) {
			truth = parseBool(row[truthCol])
		}
		switch {
		case pred && truth:
			tp++
		case pred && !truth:
			fp++
		case !pred && truth:
			fn++
		default:
			tn++
		}
	}

	total := tp + fp + tn + fn
	if tp+fp > 0 {
		rep.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rep.Recall = float64(tp) / float64(tp+fn)
	}
	if rep.Precision+rep.Recall > 0 {
		rep.F1 = 2 * rep.Precision * rep.Recall / (rep.Precision + rep.Recall)
	}
	if total > 0 {
		rep.Accuracy = float64(tp+tn) / float64(total)
	}
	rep.FailureCounts = failureCounts(header, rows[1:])

	c.logger.Info("metrics.computed",
		"rows", total,
		"precision", rep.Precision,
		"recall", rep.Recall,
		"f1", rep.F1,
		"accuracy", rep.Accuracy,
	)
	return rep, nil
}

// WriteJSON writes the report to path, indented.
func (r Report) WriteJSON(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return common.WrapError(err, "encode metrics")
	}
	return os.WriteFile(path, b, 0o644)
}

// failureCounts approximates per-criterion failure reasons from a few
// well-known clinical columns when they are present. Real rule evaluation
// logs replace this once matching goes beyond the age threshold.
func failureCounts(header []string, rows [][]string) map[string]int {
	dxCol := findColumn(header, "diagnosis_codes")
	bmiCol := findColumn(header, "bmi")
	hba1cCol := findColumn(header, "lab_hba1c_latest")

	counts := map[string]int{}
	for _, row := range rows {
		if dxCol >= 0 && dxCol < len(row) && row[dxCol] != "" && !strings.Contains(row[dxCol], "E11") {
			counts["missing diabetes diagnosis"]++
		}
		if bmiCol >= 0 && bmiCol < len(row) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[bmiCol]), 64); err == nil && v > 35 {
				counts["bmi > 35"]++
			}
		}
		if hba1cCol >= 0 && hba1cCol < len(row) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[hba1cCol]), 64); err == nil && v > 8 {
				counts["hba1c > 8"]++
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
