package model

import "time"

// RunStatus represents the state of one evaluation job in the ledger.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
	RunStatusSkipped  RunStatus = "skipped"
)

// Job identifies one (scenario, housing type, county, supply, commodity) evaluation.
type Job struct {
	Scenario    string    `json:"scenario"`
	HousingType string    `json:"housing_type"`
	County      string    `json:"county"`
	Supply      Supply    `json:"supply"`
	Commodity   Commodity `json:"commodity"`
}

// Run is the ledger record of an evaluation job.
type Run struct {
	ID        string     `json:"id"`
	Job       Job        `json:"job"`
	Utility   Utility    `json:"utility,omitempty"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     *RunError  `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the annual costs written for a completed job, keyed by
// result column ("electricity.PG&E.E-TOU-C").
type RunResult struct {
	Row        string            `json:"row"`
	OutputPath string            `json:"output_path"`
	Costs      map[string]string `json:"costs"`
}

// RunError records why a job failed or was skipped.
type RunError struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}
