package repository

// schema is applied in order on every Open; statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS studies (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		path       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extract_runs (
		id              TEXT PRIMARY KEY,
		study_id        TEXT NOT NULL REFERENCES studies(id) ON DELETE CASCADE,
		protocol_path   TEXT NOT NULL,
		status          TEXT NOT NULL,
		heuristic_count INTEGER NOT NULL DEFAULT 0,
		ocr_count       INTEGER NOT NULL DEFAULT 0,
		llm_count       INTEGER NOT NULL DEFAULT 0,
		inclusion_count INTEGER NOT NULL DEFAULT 0,
		exclusion_count INTEGER NOT NULL DEFAULT 0,
		error_message   TEXT,
		started_at      TIMESTAMP NOT NULL,
		finished_at     TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extract_runs_study ON extract_runs(study_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS criteria (
		run_id        TEXT NOT NULL REFERENCES extract_runs(id) ON DELETE CASCADE,
		criteria_type TEXT NOT NULL,
		criterion_id  TEXT NOT NULL,
		text          TEXT NOT NULL,
		source        TEXT NOT NULL,
		weight        INTEGER NOT NULL,
		position      INTEGER NOT NULL,
		PRIMARY KEY (run_id, criteria_type, criterion_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_criteria_run ON criteria(run_id, criteria_type, position)`,
}
