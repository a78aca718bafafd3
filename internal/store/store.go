// Package store records evaluation runs in SQLite or Postgres.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/electrify-cli/internal/model"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	County       string          `json:"county,omitempty"`
	Scenario     string          `json:"scenario,omitempty"`
	Commodity    model.Commodity `json:"commodity,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the evaluation run ledger.
type Store interface {
	CreateRun(ctx context.Context, job model.Job) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, utility model.Utility, result *model.RunResult) error
	// FailRun closes a run as failed or skipped.
	FailRun(ctx context.Context, runID string, status model.RunStatus, utility model.Utility, runErr *model.RunError) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(f RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

func checkFailStatus(status model.RunStatus) error {
	if status != model.RunStatusFailed && status != model.RunStatusSkipped {
		return eris.Errorf("store: run cannot be closed as %q", status)
	}
	return nil
}

func decodeRunJSON(r *model.Run, result, runErr []byte) error {
	if len(result) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(result, r.Result); err != nil {
			return eris.Wrap(err, "unmarshal result")
		}
	}
	if len(runErr) > 0 {
		r.Error = &model.RunError{}
		if err := json.Unmarshal(runErr, r.Error); err != nil {
			return eris.Wrap(err, "unmarshal error")
		}
	}
	return nil
}
