package matching

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinvara/trial-criteria/internal/common"
)

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "processed.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
	w.Flush()
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRunMarksEligibility(t *testing.T) {
	in := writeCSV(t, [][]string{
		{"patient_id", "age", "gender"},
		{"P1", "34", "F"},
		{"P2", "17", "M"},
		{"P3", "18", "F"},
		{"P4", "not-a-number", "M"},
	})
	out := filepath.Join(t.TempDir(), "match_results.csv")

	res, err := NewEngine(Config{}, nil).Run(in, out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total != 4 || res.Eligible != 2 {
		t.Errorf("result = %+v, want total 4 eligible 2", res)
	}

	rows := readCSV(t, out)
	if rows[0][len(rows[0])-1] != "eligible" {
		t.Fatalf("expected appended eligible column, header = %v", rows[0])
	}
	want := []string{"true", "false", "true", "false"}
	for i, w := range want {
		got := rows[i+1][len(rows[i+1])-1]
		if got != w {
			t.Errorf("row %d eligible = %s, want %s", i+1, got, w)
		}
	}
}

func TestRunCustomThresholdAndExistingColumn(t *testing.T) {
	in := writeCSV(t, [][]string{
		{"patient_id", "age", "eligible"},
		{"P1", "60", "false"},
		{"P2", "64", "stale"},
	})
	out := filepath.Join(t.TempDir(), "match_results.csv")

	res, err := NewEngine(Config{MinAge: 65}, nil).Run(in, out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Eligible != 0 {
		t.Errorf("eligible = %d, want 0 under min age 65", res.Eligible)
	}
	rows := readCSV(t, out)
	if len(rows[0]) != 3 {
		t.Errorf("existing column must be reused, header = %v", rows[0])
	}
	if rows[1][2] != "false" || rows[2][2] != "false" {
		t.Errorf("stale values must be overwritten: %v", rows[1:])
	}
}

func TestRunInputErrors(t *testing.T) {
	e := NewEngine(Config{}, nil)
	out := filepath.Join(t.TempDir(), "out.csv")

	if _, err := e.Run("/nonexistent/processed.csv", out); err == nil {
		t.Error("expected error for missing input")
	}

	noAge := writeCSV(t, [][]string{{"patient_id", "name"}, {"P1", "x"}})
	if _, err := e.Run(noAge, out); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing age column, got %v", err)
	}
}
