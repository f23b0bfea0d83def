package constants

// RunStatus is the canonical status for rows in extract_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued  RunStatus = "QUEUED"  // queued for processing
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusMerged  RunStatus = "MERGED"  // consensus merge completed
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure outside the core
)
