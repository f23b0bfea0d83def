package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinvara/trial-criteria/internal/common"
	"github.com/clinvara/trial-criteria/internal/consensus"
	"github.com/clinvara/trial-criteria/internal/export"
	"github.com/clinvara/trial-criteria/internal/extract"
	"github.com/clinvara/trial-criteria/internal/heuristic"
	"github.com/clinvara/trial-criteria/internal/llm"
	"github.com/clinvara/trial-criteria/internal/llm/openai"
	"github.com/clinvara/trial-criteria/internal/matching"
	"github.com/clinvara/trial-criteria/internal/metrics"
	"github.com/clinvara/trial-criteria/internal/ocr"
	"github.com/clinvara/trial-criteria/internal/pipeline"
	"github.com/clinvara/trial-criteria/internal/repository"
	"github.com/clinvara/trial-criteria/internal/services/extraction"
	"github.com/clinvara/trial-criteria/internal/workspace"
)

var (
	flagStudiesDir string
	flagDBPath     string
	flagLogLevel   string
	flagLogFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "clinvara",
	Short: "Clinical trial eligibility criteria extraction and matching",
	Long: `Clinvara extracts inclusion and exclusion criteria from trial protocol
documents by running three independent strategies (heading heuristics,
OCR-recovered text, and schema-constrained LLM extraction) and merging
their output with provenance-weighted consensus. Studies live in a local
workspace directory; runs and merged criteria are tracked in an embedded
database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStudiesDir, "studies-dir", "", "study workspace base directory (default $STUDIES_DIR or ./studies)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database file path (default $DB_PATH or ./clinvara.db)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(studyCmd, extractCmd, matchCmd, exportCmd, metricsCmd, watchCmd)
}

// app holds the wired collaborators for one command invocation.
type app struct {
	cfg      *common.Config
	logger   *slog.Logger
	db       *sql.DB
	ws       *workspace.Manager
	svc      *extraction.Service
	matcher  *matching.Engine
	exporter *export.Service
	metrics  *metrics.Calculator
}

func newApp(ctx context.Context) (*app, error) {
	cfg := common.LoadConfig()
	if flagStudiesDir != "" {
		cfg.Workspace.StudiesDir = flagStudiesDir
	}
	if flagDBPath != "" {
		cfg.Workspace.DBPath = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger()
	slog.SetDefault(logger)

	db, err := repository.Open(ctx, repository.Config{Path: cfg.Workspace.DBPath}, logger)
	if err != nil {
		return nil, err
	}

	ws := workspace.NewManager(cfg.Workspace.StudiesDir, logger)
	h := heuristic.NewExtractor(logger)

	var gen llm.Generator
	if cfg.LLM.APIKey != "" {
		gen = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxAttempts: uint(cfg.LLM.MaxAttempts),
		}, logger)
	} else {
		logger.Warn("llm strategy disabled", "hint", "set OPENAI_API_KEY to enable")
	}

	pipe := pipeline.New(
		h,
		ocr.NewRecoveryExtractor(ocr.Config{
			Pdftoppm: cfg.OCR.Pdftoppm,
			Engines:  cfg.OCR.Engines,
			DPI:      cfg.OCR.DPI,
			MaxPages: cfg.OCR.MaxPages,
			Timeout:  cfg.OCR.Timeout,
		}, h, logger),
		llm.NewExtractor(gen, cfg.LLM.Timeout, logger),
		consensus.NewMerger(consensus.Config{
			SimilarityThreshold: cfg.Consensus.SimilarityThreshold,
			WeightLLM:           cfg.Consensus.WeightLLM,
			WeightOCR:           cfg.Consensus.WeightOCR,
			WeightHeuristic:     cfg.Consensus.WeightHeuristic,
		}, logger),
		logger,
	)

	svc := extraction.NewService(
		ws,
		extract.NewTextReader(extract.Config{}, logger),
		pipe,
		repository.NewStudyRepository(db, logger),
		repository.NewExtractRunRepository(db, logger),
		repository.NewCriterionRepository(db, logger),
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		ws:       ws,
		svc:      svc,
		matcher:  matching.NewEngine(matching.Config{MinAge: cfg.Matching.MinAge}, logger),
		exporter: export.NewService(ws, logger),
		metrics:  metrics.NewCalculator(logger),
	}, nil
}

func (a *app) close() {
	repository.Close(a.db, a.logger)
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(flagLogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(flagLogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
